package storage

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/drawsync/pipeline/internal/domain"
)

// DrawModel is the bun mapping for the draws table.
type DrawModel struct {
	bun.BaseModel `bun:"table:draws,alias:d"`

	Issue     string    `bun:"issue,pk"`
	OpenTime  time.Time `bun:"open_time,notnull"`
	OpenNums  string    `bun:"open_nums,notnull"`
	Sum       int       `bun:"sum,notnull"`
	Source    string    `bun:"source,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	IsBig          bool              `bun:"is_big,notnull"`
	IsSmall        bool              `bun:"is_small,notnull"`
	IsOdd          bool              `bun:"is_odd,notnull"`
	IsEven         bool              `bun:"is_even,notnull"`
	IsExtremeBig   bool              `bun:"is_extreme_big,notnull"`
	IsExtremeSmall bool              `bun:"is_extreme_small,notnull"`
	Combination    domain.Combination `bun:"combination,notnull"`
	IsTriple       bool              `bun:"is_triple,notnull"`
	IsPair         bool              `bun:"is_pair,notnull"`
	IsStraight     bool              `bun:"is_straight,notnull"`
	IsMisc         bool              `bun:"is_misc,notnull"`
	IsSmallEdge    bool              `bun:"is_small_edge,notnull"`
	IsMiddle       bool              `bun:"is_middle,notnull"`
	IsBigEdge      bool              `bun:"is_big_edge,notnull"`
	IsEdge         bool              `bun:"is_edge,notnull"`
	IsDragon       bool              `bun:"is_dragon,notnull"`
	IsTiger        bool              `bun:"is_tiger,notnull"`
	IsTie          bool              `bun:"is_tie,notnull"`
}

// NewDrawModel converts a domain.Draw to its storage representation.
func NewDrawModel(d domain.Draw) *DrawModel {
	return &DrawModel{
		Issue:          d.Issue,
		OpenTime:       d.OpenTime,
		OpenNums:       d.OpenNums,
		Sum:            d.Sum,
		Source:         d.Source,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		IsBig:          d.IsBig,
		IsSmall:        d.IsSmall,
		IsOdd:          d.IsOdd,
		IsEven:         d.IsEven,
		IsExtremeBig:   d.IsExtremeBig,
		IsExtremeSmall: d.IsExtremeSmall,
		Combination:    d.Combination,
		IsTriple:       d.IsTriple,
		IsPair:         d.IsPair,
		IsStraight:     d.IsStraight,
		IsMisc:         d.IsMisc,
		IsSmallEdge:    d.IsSmallEdge,
		IsMiddle:       d.IsMiddle,
		IsBigEdge:      d.IsBigEdge,
		IsEdge:         d.IsEdge,
		IsDragon:       d.IsDragon,
		IsTiger:        d.IsTiger,
		IsTie:          d.IsTie,
	}
}

// ToDomain converts back to domain.Draw.
func (m *DrawModel) ToDomain() domain.Draw {
	return domain.Draw{
		Issue:          m.Issue,
		OpenTime:       m.OpenTime,
		OpenNums:       m.OpenNums,
		Sum:            m.Sum,
		Source:         m.Source,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		IsBig:          m.IsBig,
		IsSmall:        m.IsSmall,
		IsOdd:          m.IsOdd,
		IsEven:         m.IsEven,
		IsExtremeBig:   m.IsExtremeBig,
		IsExtremeSmall: m.IsExtremeSmall,
		Combination:    m.Combination,
		IsTriple:       m.IsTriple,
		IsPair:         m.IsPair,
		IsStraight:     m.IsStraight,
		IsMisc:         m.IsMisc,
		IsSmallEdge:    m.IsSmallEdge,
		IsMiddle:       m.IsMiddle,
		IsBigEdge:      m.IsBigEdge,
		IsEdge:         m.IsEdge,
		IsDragon:       m.IsDragon,
		IsTiger:        m.IsTiger,
		IsTie:          m.IsTie,
	}
}

// OmissionCounterModel is the bun mapping for the omission_counters table.
type OmissionCounterModel struct {
	bun.BaseModel `bun:"table:omission_counters,alias:o"`

	Category  string    `bun:"category,pk"`
	Streak    int       `bun:"streak,notnull"`
	MaxStreak int       `bun:"max_streak,notnull"`
	LastIssue string    `bun:"last_issue,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func NewOmissionCounterModel(c domain.OmissionCounter) *OmissionCounterModel {
	return &OmissionCounterModel{
		Category:  c.Category,
		Streak:    c.Streak,
		MaxStreak: c.MaxStreak,
		LastIssue: c.LastIssue,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *OmissionCounterModel) ToDomain() domain.OmissionCounter {
	return domain.OmissionCounter{
		Category:  m.Category,
		Streak:    m.Streak,
		MaxStreak: m.MaxStreak,
		LastIssue: m.LastIssue,
		UpdatedAt: m.UpdatedAt,
	}
}

// DailyStatModel is the bun mapping for the daily_stats table.
type DailyStatModel struct {
	bun.BaseModel `bun:"table:daily_stats,alias:ds"`

	Date      string `bun:"date,pk"`
	Category  string `bun:"category,pk"`
	HitCount  int    `bun:"hit_count,notnull"`
	DrawCount int    `bun:"draw_count,notnull"`
}

func NewDailyStatModel(s domain.DailyStat) *DailyStatModel {
	return &DailyStatModel{
		Date:      s.Date,
		Category:  s.Category,
		HitCount:  s.HitCount,
		DrawCount: s.DrawCount,
	}
}

func (m *DailyStatModel) ToDomain() domain.DailyStat {
	return domain.DailyStat{
		Date:      m.Date,
		Category:  m.Category,
		HitCount:  m.HitCount,
		DrawCount: m.DrawCount,
	}
}

// DailyStatMarkerModel backs the at-most-once-per-issue idempotency
// marker for daily stats: a row here means this issue has already
// incremented its categories' counters for that date, a durable
// backstop behind the cache-first marker (see DESIGN.md).
type DailyStatMarkerModel struct {
	bun.BaseModel `bun:"table:daily_stats_markers,alias:dsm"`

	Date  string `bun:"date,pk"`
	Issue string `bun:"issue,pk"`
}

// PredictionModel is the bun mapping for the predictions table.
type PredictionModel struct {
	bun.BaseModel `bun:"table:predictions,alias:p"`

	Issue          string                `bun:"issue,pk"`
	Type           domain.PredictionType `bun:"type,pk"`
	PredictedValue string                `bun:"predicted_value,notnull"`
	Hit            *bool                 `bun:"hit"`
	ModelName      string                `bun:"model_name,notnull"`
	LatencyMs      int64                 `bun:"latency_ms,notnull"`
	CreatedAt      time.Time             `bun:"created_at,notnull,default:current_timestamp"`
	VerifiedAt     *time.Time            `bun:"verified_at"`
}

func NewPredictionModel(p domain.Prediction) *PredictionModel {
	return &PredictionModel{
		Issue:          p.Issue,
		Type:           p.Type,
		PredictedValue: p.PredictedValue,
		Hit:            p.Hit,
		ModelName:      p.ModelName,
		LatencyMs:      p.LatencyMs,
		CreatedAt:      p.CreatedAt,
		VerifiedAt:     p.VerifiedAt,
	}
}

func (m *PredictionModel) ToDomain() domain.Prediction {
	return domain.Prediction{
		Issue:          m.Issue,
		Type:           m.Type,
		PredictedValue: m.PredictedValue,
		Hit:            m.Hit,
		ModelName:      m.ModelName,
		LatencyMs:      m.LatencyMs,
		CreatedAt:      m.CreatedAt,
		VerifiedAt:     m.VerifiedAt,
	}
}
