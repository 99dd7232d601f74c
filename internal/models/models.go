package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the on-chain worker role enum. The contract stores it as a uint8.
type Role int

const (
	RoleManufacturer Role = iota
	RoleDistributor
	RoleTransporter
)

func (r Role) String() string {
	switch r {
	case RoleManufacturer:
		return "MANUFACTURER"
	case RoleDistributor:
		return "DISTRIBUTOR"
	case RoleTransporter:
		return "TRANSPORTER"
	default:
		return "UNKNOWN"
	}
}

// ParseRole accepts a role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MANUFACTURER":
		return RoleManufacturer, nil
	case "DISTRIBUTOR":
		return RoleDistributor, nil
	case "TRANSPORTER":
		return RoleTransporter, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Role(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Worker is an on-chain registered worker. Immutable once registered.
type Worker struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Role          Role   `json:"role"`
	WalletAddress string `json:"walletAddress"`
}

// Product is an on-chain registered product with its environmental
// tolerance band. The spoilage flag is monotonic false to true; the
// custodian moves with status updates. Everything else is immutable.
type Product struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	MinTemp      float64 `json:"minTemp"`
	MaxTemp      float64 `json:"maxTemp"`
	MinHumidity  float64 `json:"minHumidity"`
	MaxHumidity  float64 `json:"maxHumidity"`
	Quantity     int     `json:"quantity"`
	MfgDate      string  `json:"mfgDate"`
	RegisteredAt int64   `json:"registeredAt"`
	CurrentOwner int     `json:"currentOwner"`
	Spoiled      bool    `json:"spoiled"`
}

// StatusEvent is one immutable custody/environment observation appended to
// a product's history. Insertion order is chronological and is the only
// order of record.
type StatusEvent struct {
	Location          string  `json:"location"`
	Temperature       float64 `json:"temperature"`
	Humidity          float64 `json:"humidity"`
	HeatIndex         float64 `json:"heatIndex"`
	WorkerID          int     `json:"workerId"`
	ProductID         int     `json:"productId"`
	Quantity          int     `json:"quantity"`
	QualityMaintained bool    `json:"qualityMaintained"`
	Timestamp         int64   `json:"timestamp"`
}

// TemperatureRecord is one compliance observation attributed to a worker,
// carrying the product bounds it was judged against.
type TemperatureRecord struct {
	ProductID       int     `json:"productId"`
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	MinTemp         float64 `json:"minTemp"`
	MaxTemp         float64 `json:"maxTemp"`
	MinHumidity     float64 `json:"minHumidity"`
	MaxHumidity     float64 `json:"maxHumidity"`
	Timestamp       int64   `json:"timestamp"`
	TempInRange     bool    `json:"tempInRange"`
	HumidityInRange bool    `json:"humidityInRange"`
}

// PerformanceRecord is the derived per-worker aggregate. It is recomputed
// fresh from ledger state on every request and never persisted.
type PerformanceRecord struct {
	WorkerID            int                 `json:"workerId"`
	WorkerName          string              `json:"workerName,omitempty"`
	WorkerRole          string              `json:"workerRole,omitempty"`
	TotalShipments      int                 `json:"totalShipmentsHandled"`
	SpoiledShipments    int                 `json:"spoiledShipments"`
	SuccessfulShipments int                 `json:"successfulShipments"`
	SuccessRate         float64             `json:"successRate"`
	TotalTempChecks     int                 `json:"totalTempChecks"`
	OutOfRangeReadings  int                 `json:"outOfRangeReadings"`
	TempComplianceRate  float64             `json:"tempComplianceRate"`
	PerformanceScore    float64             `json:"performanceScore"`
	ProductsHandled     []int               `json:"productsHandled"`
	RecentTemperatures  []TemperatureRecord `json:"recentTemperatures"`
}

// RankingEntry is one row of the ranked listing.
type RankingEntry struct {
	WorkerID           int     `json:"workerId"`
	Name               string  `json:"name"`
	Role               string  `json:"role"`
	PerformanceScore   float64 `json:"performanceScore"`
	SuccessRate        float64 `json:"successRate"`
	TempComplianceRate float64 `json:"tempComplianceRate"`
	TotalShipments     int     `json:"totalShipments"`
	SpoiledShipments   int     `json:"spoiledShipments"`
}

// ComparisonEntry pairs a worker's identity with their full performance detail.
type ComparisonEntry struct {
	WorkerID    int               `json:"workerId"`
	Name        string            `json:"name"`
	Role        string            `json:"role"`
	Performance PerformanceRecord `json:"performance"`
}

type Comparison struct {
	Entries       []ComparisonEntry `json:"comparison"`
	BestPerformer *ComparisonEntry  `json:"bestPerformer,omitempty"`
}

// Recommendation carries the product's declared temperature band for
// context along with the top ranked candidates for the requested role.
type Recommendation struct {
	ProductID       int            `json:"productId"`
	ProductName     string         `json:"productName"`
	MinTemp         float64        `json:"minTemp"`
	MaxTemp         float64        `json:"maxTemp"`
	Role            string         `json:"role"`
	Recommendations []RankingEntry `json:"recommendations"`
	TotalEligible   int            `json:"totalEligible"`
}

// WorkerDoc is the off-chain mirror of a worker registration.
type WorkerDoc struct {
	ID            uuid.UUID `json:"id"`
	WorkerID      int       `json:"workerId"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	WalletAddress string    `json:"walletAddress"`
	TxHash        string    `json:"txHash"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ProductDoc is the off-chain mirror of a product registration.
type ProductDoc struct {
	ID          uuid.UUID `json:"id"`
	ProductID   int       `json:"productId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MinTemp     float64   `json:"minTemp"`
	MaxTemp     float64   `json:"maxTemp"`
	MinHumidity float64   `json:"minHumidity"`
	MaxHumidity float64   `json:"maxHumidity"`
	Quantity    int       `json:"quantity"`
	MfgDate     string    `json:"mfgDate"`
	TxHash      string    `json:"txHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StatusDoc is the off-chain mirror of one status update.
type StatusDoc struct {
	ID          uuid.UUID `json:"id"`
	ProductID   int       `json:"productId"`
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	HeatIndex   float64   `json:"heatIndex"`
	WorkerID    int       `json:"workerId"`
	Quantity    int       `json:"quantity"`
	TxHash      string    `json:"txHash"`
	CreatedAt   time.Time `json:"createdAt"`
}
