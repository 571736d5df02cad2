package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Share fields of all models: ID, create at and updated at timestamp
type Model struct {
	ID          uuid.UUID `gorm:"type:uuid;not null;default:gen_random_uuid();primaryKey" json:"id"`
	DateCreated time.Time `gorm:"not null;default:now()" json:"created_at"`
	DateUpdated time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func NewModel() Model {
	return Model{
		ID:          uuid.New(),
		DateCreated: time.Now(),
		DateUpdated: time.Now(),
	}
}

// Enum defined
type BookingStatus string

// Constant defined
const (
	// Booking status. A booking in pending or confirmed occupies its session;
	// cancelled, completed and absent are terminal.
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingAbsent    BookingStatus = "absent"

	// Default booking channel when a booking is created through the admin surface
	SourceAdmin = "admin"
)

// ActiveBookingStatuses are the statuses under which a booking holds the
// session slot. Kept as a slice so queries can use it in WHERE ... IN.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

// User: administrator account of the back office. Regular customers never log in
// here; bookings keep their contact data inline instead.
type User struct {
	Model
	FirstName    string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(100)" json:"last_name"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password     string     `gorm:"type:varchar(60);not null" json:"-"`
	IsAdmin      bool       `gorm:"not null;default:false" json:"is_admin"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	TokenVersion int        `gorm:"not null;default:0" json:"token_version"` // bump to revoke issued JWTs

	// Relationships
	Locations []Location `gorm:"foreignKey:AuthorID" json:"locations,omitempty"`
	Quests    []Quest    `gorm:"foreignKey:AuthorID" json:"quests,omitempty"`
}

// FullName used in emails and responses. Falls back to the email when both
// name parts are empty.
func (user *User) FullName() string {
	name := user.FirstName
	if user.LastName != "" {
		if name != "" {
			name += " "
		}
		name += user.LastName
	}
	if name == "" {
		return user.Email
	}
	return name
}

// PricingRule: how a booking price is computed. Two modes:
// 1. player-based (quests): base_players_count and surcharge_per_player both set,
// price = base_price + surcharge for every player above the base count
// 2. flat (gift cards): both fields null, price = base_price regardless of players
// Rules are soft-deleted because bookings keep historical snapshots that
// reference them by id.
type PricingRule struct {
	Model
	Name               string         `gorm:"type:varchar(255);not null" json:"name"`
	Description        string         `gorm:"type:text" json:"description"`
	IsForQuests        bool           `gorm:"not null;default:false" json:"is_for_quests"`
	IsForGiftCards     bool           `gorm:"not null;default:false" json:"is_for_gift_cards"`
	BasePrice          int            `gorm:"not null;default:0" json:"base_price"` // minor currency units
	BasePlayersCount   *int           `json:"base_players_count"`
	SurchargePerPlayer *int           `json:"surcharge_per_player"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsPlayerBased reports whether the rule prices by player count. A flat rule
// (gift card amounts) leaves both fields null.
func (rule *PricingRule) IsPlayerBased() bool {
	return rule.BasePlayersCount != nil && rule.SurchargePerPlayer != nil
}

// Location: a physical venue that hosts quests
type Location struct {
	Model
	AuthorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	ShortAddress string         `gorm:"type:varchar(255)" json:"short_address"`
	Address      string         `gorm:"type:varchar(255);not null" json:"address"`
	Description  string         `gorm:"type:text" json:"description"`
	Latitude     *float64       `gorm:"type:decimal(11,8)" json:"latitude"`
	Longitude    *float64       `gorm:"type:decimal(11,8)" json:"longitude"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	WorkingHours string         `gorm:"type:varchar(255)" json:"working_hours"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Author User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Quests []Quest `gorm:"foreignKey:LocationID" json:"quests,omitempty"`
}

// Quest: a quest room. References its default pricing rule and location.
// The average_time/passability/best_time trio each pair with an is_auto flag:
// when auto, the value is recomputed from completed session statistics by a
// background worker; when manual, admins set it by hand and the worker leaves
// it alone.
type Quest struct {
	Model
	AuthorID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Slug              string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Title             string         `gorm:"type:varchar(255);not null" json:"title"`
	Subtitle          string         `gorm:"type:varchar(255)" json:"subtitle"`
	Playtime          string         `gorm:"type:varchar(50)" json:"playtime"` // display text, e.g. "1 hour"
	PlayersMin        *int           `json:"players_min"`
	PlayersMax        *int           `json:"players_max"`
	PricingRuleID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"pricing_rule_id"`
	LocationID        *uuid.UUID     `gorm:"type:uuid;index" json:"location_id"`
	ShortDescription  string         `gorm:"type:text" json:"short_description"`
	FullDescription   string         `gorm:"type:text" json:"full_description"`
	AdditionalInfo    string         `gorm:"type:text" json:"additional_info"`
	AgeRating         string         `gorm:"type:varchar(10)" json:"age_rating"` // e.g. "12+", "18+"
	IsVisible         bool           `gorm:"not null;default:false" json:"is_visible"`
	IsInDev           bool           `gorm:"not null;default:false" json:"is_in_dev"`
	OpeningDateText   string         `gorm:"type:varchar(255)" json:"opening_date_text"` // e.g. "spring 2026"
	AverageTime       *int           `json:"average_time"`                               // seconds
	IsAutoAverageTime bool           `gorm:"not null;default:true" json:"is_auto_average_time"`
	Passability       *int           `json:"passability"` // 0-100
	IsAutoPassability bool           `gorm:"not null;default:true" json:"is_auto_passability"`
	BestTime          *int           `json:"best_time"` // seconds
	IsAutoBestTime    bool           `gorm:"not null;default:true" json:"is_auto_best_time"`
	DifficultyLevel   *int           `json:"difficulty_level"`
	ScarinessLevel    *int           `json:"scariness_level"`
	IsBookable        bool           `gorm:"not null;default:true" json:"is_bookable"`
	Sort              int            `gorm:"not null;default:999" json:"sort"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Author      User           `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PricingRule PricingRule    `gorm:"foreignKey:PricingRuleID" json:"pricing_rule,omitempty"`
	Location    *Location      `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Sessions    []QuestSession `gorm:"foreignKey:QuestID" json:"sessions,omitempty"`
}

// QuestSession: a scheduled timeslot for a quest, bookable by at most one
// active booking. The pricing rule may differ from the quest's default
// (promotional slots). Sessions are hard rows, never soft-deleted.
type QuestSession struct {
	Model
	AuthorID       uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	QuestID        uuid.UUID `gorm:"type:uuid;not null;index" json:"quest_id"`
	StartsAt       time.Time `gorm:"not null;index" json:"starts_at"`
	Duration       *int      `json:"duration"` // minutes
	PricingRuleID  uuid.UUID `gorm:"type:uuid;not null;index" json:"pricing_rule_id"`
	PrepaymentOnly bool      `gorm:"not null;default:false" json:"prepayment_only"`
	Notes          string    `gorm:"type:text" json:"notes"`

	// Relationships
	Author      User        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Quest       Quest       `gorm:"foreignKey:QuestID" json:"quest,omitempty"`
	PricingRule PricingRule `gorm:"foreignKey:PricingRuleID" json:"pricing_rule,omitempty"`
	Bookings    []Booking   `gorm:"foreignKey:QuestSessionID" json:"bookings,omitempty"`
}

// Booking information.
// Business rules:
// 1. A booking is created with status `pending` and occupies its session slot
// 2. At most one booking per session may be pending or confirmed at any time.
// Enforced in the admission transaction, backstopped by a partial unique
// index on quest_session_id over active statuses
// 3. The pricing snapshot is frozen at admission and never recomputed, so
// later edits to the pricing rule cannot change historical bookings
// 4. play_time, winners and hints are recorded after the session for quest
// statistics. `absent` flags a no-show for loss-prevention review
type Booking struct {
	Model
	QuestSessionID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"quest_session_id"`
	UserID               *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"` // guest bookings keep this null
	Name                 string          `gorm:"type:varchar(255);not null" json:"name"`
	Phone                string          `gorm:"type:varchar(50);not null" json:"phone"`
	Email                string          `gorm:"type:varchar(255)" json:"email"`
	PlayersCount         int             `gorm:"not null" json:"players_count"`
	Status               BookingStatus   `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	SourceID             string          `gorm:"type:varchar(50);not null;default:admin" json:"source_id"`
	PricingSnapshot      PricingSnapshot `gorm:"type:jsonb;not null" json:"pricing_snapshot"`
	TotalPrice           int             `gorm:"not null" json:"total_price"`
	PaidAmount           int             `gorm:"not null;default:0" json:"paid_amount"`
	ManualDiscount       int             `gorm:"not null;default:0" json:"manual_discount"`
	ManualDiscountReason string          `gorm:"type:varchar(255)" json:"manual_discount_reason"`
	Notes                string          `gorm:"type:text" json:"notes"`
	BookingCode          string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_bookings_code" json:"booking_code"`
	PlayTime             *int            `json:"play_time"` // seconds, statistics
	Winners              *bool           `json:"winners"`   // whether the party won, statistics
	Hints                *int            `json:"hints"`     // hints used, statistics
	ConfirmedAt          *time.Time      `json:"confirmed_at"`
	CancelledAt          *time.Time      `json:"cancelled_at"`

	// Relationships
	QuestSession QuestSession `gorm:"foreignKey:QuestSessionID" json:"quest_session,omitempty"`
	User         *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsActive reports whether the booking currently occupies its session slot.
func (booking *Booking) IsActive() bool {
	return booking.Status == BookingPending || booking.Status == BookingConfirmed
}
