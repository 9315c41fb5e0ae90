package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending    = "PENDING"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	BillStatusPending = "PENDING"
	BillStatusPartial = "PARTIAL"
	BillStatusPaid    = "PAID"
)

const (
	ExpenseStatusPending = "PENDING"
	ExpenseStatusPartial = "PARTIAL"
	ExpenseStatusPaid    = "PAID"
)

// ── Group B: Ledger tags (CHECK constrained in DB) ──

const (
	PaymentSourceBooking  = "BOOKING"
	PaymentSourceRevision = "REVISION"
	PaymentSourcePayment  = "PAYMENT"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleStaff   = "STAFF"
)

const (
	PricingMethodPerPlate = "PER_PLATE"
	PricingMethodManual   = "MANUAL"
)

const (
	StockMovementPurchase    = "PURCHASE"
	StockMovementConsumption = "CONSUMPTION"
	StockMovementWastage     = "WASTAGE"
	StockMovementReturn      = "RETURN"
	StockMovementAdjustment  = "ADJUSTMENT"
)

const (
	PayrollPeriodDaily   = "DAILY"
	PayrollPeriodWeekly  = "WEEKLY"
	PayrollPeriodMonthly = "MONTHLY"
	PayrollPeriodEvent   = "EVENT"
)

// ── Group D: Configurable labels (no DB constraint) ──

const (
	MealTypeBreakfast = "BREAKFAST"
	MealTypeLunch     = "LUNCH"
	MealTypeDinner    = "DINNER"
	MealTypeSnacks    = "SNACKS"
	MealTypeSweets    = "SWEETS"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodUPI      = "UPI"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "BANK_TRANSFER"
	PaymentMethodCheque   = "CHEQUE"
)

const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)
