package integration

import (
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Import report DTOs
// ---------------------------------------------------------------------------

// ImportReportResponse is the serialized form of an import run
type ImportReportResponse struct {
	RunID        string                   `json:"run_id"`
	Status       integration.SyncStatus   `json:"status"`
	TotalCount   int                      `json:"total_count"`
	SuccessCount int                      `json:"success_count"`
	SkippedCount int                      `json:"skipped_count"`
	FailedCount  int                      `json:"failed_count"`
	Failures     []ProductFailureResponse `json:"failures,omitempty"`
	Objects      []TransferObjectResponse `json:"objects"`
	StartedAt    time.Time                `json:"started_at"`
	FinishedAt   time.Time                `json:"finished_at"`
}

// ProductFailureResponse describes a failed product
type ProductFailureResponse struct {
	ProductID    int    `json:"product_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// TransferObjectResponse wraps one produced object with its type
type TransferObjectResponse struct {
	Type       integration.ObjectType `json:"type"`
	Identifier string                 `json:"identifier"`
	Variation  *VariationResponse     `json:"variation,omitempty"`
	Stock      *StockResponse         `json:"stock,omitempty"`
	Media      *MediaResponse         `json:"media,omitempty"`
}

// ---------------------------------------------------------------------------
// Transfer object DTOs
// ---------------------------------------------------------------------------

// VariationResponse is the serialized form of a variation
type VariationResponse struct {
	ProductIdentifier     string             `json:"product_identifier"`
	Active                bool               `json:"active"`
	IsMain                bool               `json:"is_main"`
	Number                string             `json:"number"`
	StockLimitation       bool               `json:"stock_limitation"`
	Barcodes              []BarcodeResponse  `json:"barcodes"`
	Position              int                `json:"position"`
	Model                 string             `json:"model,omitempty"`
	Images                []ImageResponse    `json:"images"`
	Prices                []PriceResponse    `json:"prices"`
	PurchasePrice         float64            `json:"purchase_price"`
	UnitIdentifier        *string            `json:"unit_identifier"`
	Content               float64            `json:"content"`
	ReferenceAmount       float64            `json:"reference_amount"`
	MaximumOrderQuantity  float64            `json:"maximum_order_quantity"`
	MinimumOrderQuantity  float64            `json:"minimum_order_quantity"`
	IntervalOrderQuantity float64            `json:"interval_order_quantity"`
	ReleaseDate           *time.Time         `json:"release_date"`
	ShippingTime          int                `json:"shipping_time"`
	Width                 int                `json:"width"`
	Height                int                `json:"height"`
	Length                int                `json:"length"`
	Weight                float64            `json:"weight"`
	Properties            []PropertyResponse `json:"properties"`
}

// StockResponse is the serialized form of a stock
type StockResponse struct {
	VariationIdentifier string          `json:"variation_identifier"`
	Stock               decimal.Decimal `json:"stock"`
}

// MediaResponse is the serialized form of a media object
type MediaResponse struct {
	Link          string                `json:"link"`
	Name          string                `json:"name,omitempty"`
	AlternateName string                `json:"alternate_name,omitempty"`
	Translations  []TranslationResponse `json:"translations,omitempty"`
}

// BarcodeResponse is a typed barcode
type BarcodeResponse struct {
	Type integration.BarcodeType `json:"type"`
	Code string                  `json:"code"`
}

// ImageResponse links a media object
type ImageResponse struct {
	MediaIdentifier string `json:"media_identifier"`
	Position        int    `json:"position"`
}

// PriceResponse is a sales price
type PriceResponse struct {
	Price       decimal.Decimal `json:"price"`
	PseudoPrice decimal.Decimal `json:"pseudo_price"`
	FromAmount  float64         `json:"from_amount"`
	ToAmount    *float64        `json:"to_amount"`
}

// PropertyResponse is a localized property
type PropertyResponse struct {
	Name         string                `json:"name"`
	Position     int                   `json:"position"`
	Values       []ValueResponse       `json:"values"`
	Translations []TranslationResponse `json:"translations"`
}

// ValueResponse is a property value
type ValueResponse struct {
	Value        string                `json:"value"`
	Position     int                   `json:"position"`
	Translations []TranslationResponse `json:"translations"`
}

// TranslationResponse is a translated property
type TranslationResponse struct {
	LanguageIdentifier string `json:"language_identifier"`
	Property           string `json:"property"`
	Value              string `json:"value"`
}

// ---------------------------------------------------------------------------
// Conversion functions
// ---------------------------------------------------------------------------

// ToImportReportResponse converts an import report to its response DTO
func ToImportReportResponse(report *integration.ImportReport) ImportReportResponse {
	response := ImportReportResponse{
		RunID:        report.RunID,
		Status:       report.Status,
		TotalCount:   report.TotalCount,
		SuccessCount: report.SuccessCount,
		SkippedCount: report.SkippedCount,
		FailedCount:  report.FailedCount,
		Failures:     make([]ProductFailureResponse, 0, len(report.Failures)),
		Objects:      ToTransferObjectResponses(report.Results),
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
	}
	for _, failure := range report.Failures {
		response.Failures = append(response.Failures, ProductFailureResponse{
			ProductID:    failure.ProductID,
			ErrorCode:    failure.ErrorCode,
			ErrorMessage: failure.ErrorMessage,
		})
	}
	return response
}

// ToTransferObjectResponses converts a result set in insertion order
func ToTransferObjectResponses(result *integration.ResultSet) []TransferObjectResponse {
	if result == nil {
		return []TransferObjectResponse{}
	}
	responses := make([]TransferObjectResponse, 0, result.Len())
	for _, object := range result.Objects() {
		response := TransferObjectResponse{
			Type:       object.GetType(),
			Identifier: object.GetIdentifier(),
		}
		switch o := object.(type) {
		case *integration.Variation:
			response.Variation = toVariationResponse(o)
		case *integration.Stock:
			response.Stock = &StockResponse{
				VariationIdentifier: o.VariationIdentifier,
				Stock:               o.Stock,
			}
		case *integration.Media:
			response.Media = &MediaResponse{
				Link:          o.Link,
				Name:          o.Name,
				AlternateName: o.AlternateName,
				Translations:  toTranslationResponses(o.Translations),
			}
		}
		responses = append(responses, response)
	}
	return responses
}

func toVariationResponse(v *integration.Variation) *VariationResponse {
	response := &VariationResponse{
		ProductIdentifier:     v.ProductIdentifier,
		Active:                v.Active,
		IsMain:                v.IsMain,
		Number:                v.Number,
		StockLimitation:       v.StockLimitation,
		Barcodes:              make([]BarcodeResponse, 0, len(v.Barcodes)),
		Position:              v.Position,
		Model:                 v.Model,
		Images:                make([]ImageResponse, 0, len(v.Images)),
		Prices:                make([]PriceResponse, 0, len(v.Prices)),
		PurchasePrice:         v.PurchasePrice,
		UnitIdentifier:        v.UnitIdentifier,
		Content:               v.Content,
		ReferenceAmount:       v.ReferenceAmount,
		MaximumOrderQuantity:  v.MaximumOrderQuantity,
		MinimumOrderQuantity:  v.MinimumOrderQuantity,
		IntervalOrderQuantity: v.IntervalOrderQuantity,
		ReleaseDate:           v.ReleaseDate,
		ShippingTime:          v.ShippingTime,
		Width:                 v.Width,
		Height:                v.Height,
		Length:                v.Length,
		Weight:                v.Weight,
		Properties:            make([]PropertyResponse, 0, len(v.Properties)),
	}
	for _, barcode := range v.Barcodes {
		response.Barcodes = append(response.Barcodes, BarcodeResponse{Type: barcode.Type, Code: barcode.Code})
	}
	for _, image := range v.Images {
		response.Images = append(response.Images, ImageResponse{MediaIdentifier: image.MediaIdentifier, Position: image.Position})
	}
	for _, price := range v.Prices {
		response.Prices = append(response.Prices, PriceResponse{
			Price:       price.Price,
			PseudoPrice: price.PseudoPrice,
			FromAmount:  price.FromAmount,
			ToAmount:    price.ToAmount,
		})
	}
	for _, property := range v.Properties {
		values := make([]ValueResponse, 0, len(property.Values))
		for _, value := range property.Values {
			values = append(values, ValueResponse{
				Value:        value.Value,
				Position:     value.Position,
				Translations: toTranslationResponses(value.Translations),
			})
		}
		response.Properties = append(response.Properties, PropertyResponse{
			Name:         property.Name,
			Position:     property.Position,
			Values:       values,
			Translations: toTranslationResponses(property.Translations),
		})
	}
	return response
}

func toTranslationResponses(translations []integration.Translation) []TranslationResponse {
	responses := make([]TranslationResponse, 0, len(translations))
	for _, translation := range translations {
		responses = append(responses, TranslationResponse{
			LanguageIdentifier: translation.LanguageIdentifier,
			Property:           translation.Property,
			Value:              translation.Value,
		})
	}
	return responses
}
