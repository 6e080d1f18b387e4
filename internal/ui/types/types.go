package types

// =============================================================================
// AUTHENTICATION & AUTHORIZATION TYPES
// =============================================================================
// These types are shared to avoid circular imports between auth ↔ client ↔ handlers

// Role is an account role issued by the school API
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleFinancial  Role = "financial"
	RoleSecretary  Role = "secretary"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Permissions checked by the portal routes
const (
	PermModalitiesRead  = "modalities:read"
	PermModalitiesWrite = "modalities:write"
)

// AccessTokenDetails represents the response from the login and refresh token APIs
type AccessTokenDetails struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	Role         Role     `json:"role"`
	Permissions  []string `json:"permissions,omitempty"`
}

// LoginRequest is the body sent to the login endpoint
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body sent to the token refresh endpoint
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// =============================================================================
// SCHOOL TYPES
// =============================================================================

// Modality is a class offered by the school (e.g. ballet, jazz, forró)
type Modality struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description"`
	Level        string  `json:"level"`
	MonthlyFee   float64 `json:"monthly_fee"`
	Capacity     int     `json:"capacity"`
	Enrolled     int     `json:"enrolled"`
	InstructorID string  `json:"instructor_id,omitempty"`
	Active       bool    `json:"active"`
}

// ModalityRequest is the body used to create or replace a modality
type ModalityRequest struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description"`
	Level        string  `json:"level"`
	MonthlyFee   float64 `json:"monthly_fee"`
	Capacity     int     `json:"capacity"`
	InstructorID string  `json:"instructor_id,omitempty"`
}

// ModalityStatusRequest is the partial update used to enable or disable a modality
type ModalityStatusRequest struct {
	Active bool `json:"active"`
}

// ModalityPage is one page of the modality listing
type ModalityPage struct {
	Items      []Modality `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
}

// DashboardSummary holds the headline figures shown on the dashboard
type DashboardSummary struct {
	ActiveStudents   int           `json:"active_students"`
	ActiveModalities int           `json:"active_modalities"`
	ClassesThisWeek  int           `json:"classes_this_week"`
	MonthlyRevenue   float64       `json:"monthly_revenue"`
	Enrollments      []MonthlyStat `json:"enrollments"`
}

// MonthlyStat is a single point of a monthly series
type MonthlyStat struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// FinancialSummary holds the revenue figures for a period
type FinancialSummary struct {
	Period            string            `json:"period"`
	Revenue           float64           `json:"revenue"`
	Expenses          float64           `json:"expenses"`
	Balance           float64           `json:"balance"`
	OverdueCount      int               `json:"overdue_count"`
	OverdueAmount     float64           `json:"overdue_amount"`
	RevenueByMonth    []MonthlyStat     `json:"revenue_by_month"`
	RevenueByModality []ModalityRevenue `json:"revenue_by_modality"`
}

// ModalityRevenue is the revenue attributed to one modality
type ModalityRevenue struct {
	Modality string  `json:"modality"`
	Amount   float64 `json:"amount"`
}
