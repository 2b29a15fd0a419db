package request

// CashMovementRequest records money entering or leaving the register
type CashMovementRequest struct {
	Direction   string  `json:"direction" binding:"required,oneof=in out"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Method      string  `json:"method" binding:"omitempty,oneof=cash card pix other"`
	Description string  `json:"description" binding:"omitempty,max=255"`
}
