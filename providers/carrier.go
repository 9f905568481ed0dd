package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maisonarome/storefront/models"
)

// CarrierProvider implements ShippingProvider against a Shippo-compatible
// REST API.
type CarrierProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewCarrierProvider creates a new CarrierProvider.
func NewCarrierProvider(apiKey, baseURL string) *CarrierProvider {
	return &CarrierProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ---- carrier API request/response structs ----

type carrierAddress struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

type carrierParcel struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"`
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"`
}

type carrierShipmentRequest struct {
	AddressFrom carrierAddress  `json:"address_from"`
	AddressTo   carrierAddress  `json:"address_to"`
	Parcels     []carrierParcel `json:"parcels"`
	Async       bool            `json:"async"`
}

type carrierRate struct {
	ObjectID     string `json:"object_id"`
	Provider     string `json:"provider"`
	ServiceLevel struct {
		Name string `json:"name"`
	} `json:"servicelevel"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	EstimatedDays int    `json:"estimated_days"`
}

type carrierShipmentResponse struct {
	Rates []carrierRate `json:"rates"`
}

type carrierTrackResponse struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	TrackingStatus struct {
		Status    string `json:"status"`
		SubStatus string `json:"substatus"`
		Location  struct {
			City    string `json:"city"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"location"`
		StatusDate string `json:"status_date"`
	} `json:"tracking_status"`
}

// GetRates creates a shipment quote and returns the available rates.
func (p *CarrierProvider) GetRates(ctx context.Context, weightKg float64, origin, destination models.Address) ([]models.ShippingOption, error) {
	reqBody := carrierShipmentRequest{
		AddressFrom: toCarrierAddress(origin),
		AddressTo:   toCarrierAddress(destination),
		Parcels: []carrierParcel{
			{
				Length:       "15",
				Width:        "10",
				Height:       "10",
				DistanceUnit: "cm",
				Weight:       fmt.Sprintf("%.3f", weightKg),
				MassUnit:     "kg",
			},
		},
		Async: false,
	}

	var resp carrierShipmentResponse
	if err := p.doRequest(ctx, http.MethodPost, "/shipments/", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("carrier GetRates: %w", err)
	}

	options := make([]models.ShippingOption, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		var amount float64
		fmt.Sscanf(r.Amount, "%f", &amount)
		options = append(options, models.ShippingOption{
			Provider:      r.Provider,
			ServiceLevel:  r.ServiceLevel.Name,
			Amount:        amount,
			Currency:      r.Currency,
			EstimatedDays: r.EstimatedDays,
			RateID:        r.ObjectID,
		})
	}
	return options, nil
}

// TrackShipment retrieves the current tracking status from the carrier.
func (p *CarrierProvider) TrackShipment(ctx context.Context, carrier, trackingCode string) (TrackingStatus, error) {
	path := fmt.Sprintf("/tracks/%s/%s", carrier, trackingCode)

	var resp carrierTrackResponse
	if err := p.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return TrackingStatus{}, fmt.Errorf("carrier TrackShipment: %w", err)
	}

	updatedAt := time.Now()
	if resp.TrackingStatus.StatusDate != "" {
		if t, err := time.Parse(time.RFC3339, resp.TrackingStatus.StatusDate); err == nil {
			updatedAt = t
		}
	}

	location := ""
	if l := resp.TrackingStatus.Location; l.City != "" {
		location = fmt.Sprintf("%s, %s, %s", l.City, l.State, l.Country)
	}

	return TrackingStatus{
		TrackingCode: resp.TrackingNumber,
		Status:       resp.TrackingStatus.Status,
		SubStatus:    resp.TrackingStatus.SubStatus,
		Location:     location,
		UpdatedAt:    updatedAt,
		Carrier:      resp.Carrier,
	}, nil
}

func (p *CarrierProvider) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "ShippoToken "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("carrier API error (status %d): %s", resp.StatusCode, string(respBytes))
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func toCarrierAddress(a models.Address) carrierAddress {
	return carrierAddress{
		Name:    a.Name,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.PostalCode,
		Country: a.Country,
		Phone:   a.Phone,
	}
}
