package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-giftstock/internal/database"
	"go-giftstock/internal/models"
	"go-giftstock/internal/services"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// RunAgent answers a shopkeeper question with Gemini function calling over
// read-only shop tools. It never mutates stock: every write goes through
// the transactional services, not the assistant.
func RunAgent(ctx context.Context, db *gorm.DB, userMessage string, apiKey string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-001")

	today := time.Now().Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a small gift shop.

	RULES:
	1. STOCK: For any question about products, packaging materials, stock
	   levels, reserved or sold quantities, call 'check_inventory' and read
	   the JSON. Do NOT guess numbers.
	2. SALES: For revenue or profit questions use 'get_sales_report'.
	3. AUDIT: If asked whether the books are consistent, call 'audit_ledger'
	   and report any entity that failed.
	4. You can only read. Politely refuse requests to change stock or prices.

	USER: %s`, today, userMessage)

	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "check_inventory",
					Description: "Get all products and packaging materials with their available/reserved/sold quantities and prices.",
				},
				{
					Name:        "get_sales_report",
					Description: "Get sales revenue and profit for a date range, direct sales and gift sets combined.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
				{
					Name:        "audit_ledger",
					Description: "Recompute sold quantities and revenue from the history log and compare with the live stock ledger.",
				},
			},
		},
	}

	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	// Tool loop: answer calls until the model produces plain text.
	for round := 0; round < 5; round++ {
		funcCall, ok := firstFunctionCall(resp)
		if !ok {
			break
		}
		toolResp, err := dispatch(ctx, db, funcCall)
		if err != nil {
			return "", err
		}
		resp, err = session.SendMessage(ctx, toolResp)
		if err != nil {
			return "", err
		}
	}

	return printResponse(resp), nil
}

func firstFunctionCall(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			return funcCall, true
		}
	}
	return genai.FunctionCall{}, false
}

func dispatch(ctx context.Context, db *gorm.DB, funcCall genai.FunctionCall) (genai.FunctionResponse, error) {
	switch funcCall.Name {
	case "check_inventory":
		return checkInventory(ctx, db)
	case "get_sales_report":
		return salesReport(db, funcCall)
	case "audit_ledger":
		return auditLedger(ctx, db)
	default:
		return genai.FunctionResponse{
			Name:     funcCall.Name,
			Response: map[string]interface{}{"error": "unknown tool"},
		}, nil
	}
}

func checkInventory(ctx context.Context, db *gorm.DB) (genai.FunctionResponse, error) {
	var products []models.Product
	if err := db.WithContext(ctx).Find(&products).Error; err != nil {
		return genai.FunctionResponse{}, err
	}
	var materials []models.PackagingMaterial
	if err := db.WithContext(ctx).Find(&materials).Error; err != nil {
		return genai.FunctionResponse{}, err
	}

	type stockLine struct {
		ID        uint    `json:"id"`
		Name      string  `json:"name"`
		Available float64 `json:"available"`
		Reserved  float64 `json:"reserved"`
		Sold      float64 `json:"sold"`
		CostPrice float64 `json:"cost_price"`
	}
	var productLines, packagingLines []stockLine
	for _, p := range products {
		productLines = append(productLines, stockLine{
			ID: p.ID, Name: p.Name,
			Available: float64(p.AvailableQuantity),
			Reserved:  float64(p.ReservedQuantity),
			Sold:      float64(p.SoldQuantity),
			CostPrice: p.PurchasePricePerItem,
		})
	}
	for _, m := range materials {
		packagingLines = append(packagingLines, stockLine{
			ID: m.ID, Name: m.Name,
			Available: m.AvailableQuantity,
			Reserved:  m.ReservedQuantity,
			Sold:      m.SoldQuantity,
			CostPrice: m.PurchasePricePerUnit,
		})
	}

	productsJSON, _ := json.Marshal(productLines)
	packagingJSON, _ := json.Marshal(packagingLines)
	return genai.FunctionResponse{
		Name: "check_inventory",
		Response: map[string]interface{}{
			"products":  string(productsJSON),
			"packaging": string(packagingJSON),
		},
	}, nil
}

func salesReport(db *gorm.DB, funcCall genai.FunctionCall) (genai.FunctionResponse, error) {
	args := funcCall.Args
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)
	if err1 != nil || err2 != nil {
		return genai.FunctionResponse{
			Name:     "get_sales_report",
			Response: map[string]interface{}{"error": "dates must be YYYY-MM-DD"},
		}, nil
	}

	report, err := database.GetSalesReport(db, start, end.Add(24*time.Hour))
	if err != nil {
		return genai.FunctionResponse{}, err
	}
	reportJSON, _ := json.Marshal(report)
	return genai.FunctionResponse{
		Name:     "get_sales_report",
		Response: map[string]interface{}{"report": string(reportJSON)},
	}, nil
}

func auditLedger(ctx context.Context, db *gorm.DB) (genai.FunctionResponse, error) {
	rows, err := services.NewReconcileService(db).Run(ctx)
	if err != nil {
		return genai.FunctionResponse{}, err
	}
	rowsJSON, _ := json.Marshal(rows)
	return genai.FunctionResponse{
		Name:     "audit_ledger",
		Response: map[string]interface{}{"entities": string(rowsJSON)},
	}, nil
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not come up with an answer, please try rephrasing."
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "I could not come up with an answer, please try rephrasing."
	}
	return out
}
