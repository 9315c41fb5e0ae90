package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusPENDING    OrderStatus = "PENDING"
	OrderStatusINPROGRESS OrderStatus = "IN_PROGRESS"
	OrderStatusCOMPLETED  OrderStatus = "COMPLETED"
	OrderStatusCANCELLED  OrderStatus = "CANCELLED"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

type NullOrderStatus struct {
	OrderStatus OrderStatus
	Valid       bool
}

func (ns *NullOrderStatus) Scan(value interface{}) error {
	if value == nil {
		ns.OrderStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.OrderStatus.Scan(value)
}

func (ns NullOrderStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.OrderStatus), nil
}

type BillStatus string

const (
	BillStatusPENDING BillStatus = "PENDING"
	BillStatusPARTIAL BillStatus = "PARTIAL"
	BillStatusPAID    BillStatus = "PAID"
)

func (e *BillStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = BillStatus(s)
	case string:
		*e = BillStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for BillStatus: %T", src)
	}
	return nil
}

type ExpenseStatus string

const (
	ExpenseStatusPENDING ExpenseStatus = "PENDING"
	ExpenseStatusPARTIAL ExpenseStatus = "PARTIAL"
	ExpenseStatusPAID    ExpenseStatus = "PAID"
)

func (e *ExpenseStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = ExpenseStatus(s)
	case string:
		*e = ExpenseStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for ExpenseStatus: %T", src)
	}
	return nil
}

type Order struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	SupervisorID    pgtype.UUID
	EventDate       pgtype.Timestamptz
	Venue           pgtype.Text
	Status          OrderStatus
	TotalAmount     pgtype.Numeric
	AdvancePaid     pgtype.Numeric
	RemainingAmount pgtype.Numeric
	Discount        pgtype.Numeric
	TransportCost   pgtype.Numeric
	MealPlans       []byte
	Stalls          []byte
	Notes           pgtype.Text
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	Subtotal   pgtype.Numeric
}

type Bill struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	TotalAmount     pgtype.Numeric
	PaidAmount      pgtype.Numeric
	RemainingAmount pgtype.Numeric
	Status          BillStatus
	PaymentHistory  []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     pgtype.Text
	Email     pgtype.Text
	Address   pgtype.Text
	Notes     pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt pgtype.Timestamptz
}

type MenuItem struct {
	ID        uuid.UUID
	Name      string
	Category  string
	UnitPrice pgtype.Numeric
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Expense struct {
	ID          uuid.UUID
	Category    string
	Recipient   string
	Description pgtype.Text
	Amount      pgtype.Numeric
	PaidAmount  pgtype.Numeric
	Status      ExpenseStatus
	OrderID     pgtype.UUID
	ExpenseDate pgtype.Date
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PayrollEntry struct {
	ID            uuid.UUID
	PayrollDate   pgtype.Date
	PeriodType    string
	PeriodRef     pgtype.Text
	EmployeeName  string
	GrossPay      pgtype.Numeric
	PaymentMethod string
	OrderID       pgtype.UUID
	PaidAt        pgtype.Timestamptz
	CreatedAt     time.Time
}

type StockItem struct {
	ID           uuid.UUID
	Name         string
	Unit         string
	Quantity     pgtype.Numeric
	ReorderLevel pgtype.Numeric
	UnitCost     pgtype.Numeric
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type StockMovement struct {
	ID           uuid.UUID
	StockItemID  uuid.UUID
	MovementType string
	Quantity     pgtype.Numeric
	UnitCost     pgtype.Numeric
	OrderID      pgtype.UUID
	Notes        pgtype.Text
	CreatedAt    time.Time
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Phone        pgtype.Text
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Notification struct {
	ID        uuid.UUID
	Type      string
	Title     string
	Message   string
	EntityID  pgtype.UUID
	Severity  string
	Read      bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Action    string
	Entity    string
	EntityID  pgtype.UUID
	Detail    []byte
	CreatedAt time.Time
}
