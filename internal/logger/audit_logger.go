package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/models"
)

// AuditLogger subscribes to the shared MessageBus and logs trade and
// debate events to the database. Adapted from the teacher's
// EventBus-subscribing audit logger; the bus it subscribes to changed,
// the event shapes it logs did not.
type AuditLogger struct {
	db    *gorm.DB
	bus   *bus.MessageBus
	debug bool

	unsubscribe []bus.Unsubscribe
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(db *gorm.DB, b *bus.MessageBus) *AuditLogger {
	return &AuditLogger{
		db:    db,
		bus:   b,
		debug: true,
	}
}

// Start subscribes to trade executions and debate results and begins
// logging.
func (al *AuditLogger) Start() {
	if al.bus == nil {
		log.Println("[AUDIT][WARN] MessageBus not available, audit logging disabled")
		return
	}

	al.unsubscribe = append(al.unsubscribe,
		al.bus.Subscribe("agent.trader-*.trade_executed", al.handleTradeEvent),
		al.bus.Subscribe("debate.result", al.handleDebateEvent),
	)

	log.Println("[AUDIT] audit logger started, subscribed to trade and debate events")
}

// Stop releases the bus subscriptions.
func (al *AuditLogger) Stop() {
	for _, unsub := range al.unsubscribe {
		unsub()
	}
	al.unsubscribe = nil
}

func (al *AuditLogger) handleTradeEvent(msg models.Message) {
	pos, ok := msg.Data.(models.Position)
	if !ok {
		return
	}

	log.Printf("[AUDIT][TRADE] Token=%s Status=%s PnL=%.4f PnL%%=%.2f Signature=%s",
		pos.Token, pos.Status, pos.PnL, pos.PnLPercent, pos.TxSignature)

	_ = al.LogToDB("trader", string(INFO), fmt.Sprintf("position %s -> %s", pos.Token, pos.Status), "trade_executed", map[string]interface{}{
		"token": pos.Token, "status": pos.Status, "pnl": pos.PnL, "pnl_percent": pos.PnLPercent,
	})
}

func (al *AuditLogger) handleDebateEvent(msg models.Message) {
	result, ok := msg.Data.(models.DebateResult)
	if !ok {
		return
	}

	log.Printf("[AUDIT][DEBATE] Proposal=%s Decision=%s Confidence=%.2f",
		result.Proposal.Target, result.Decision, result.Confidence)

	_ = al.LogToDB("debate", string(INFO), fmt.Sprintf("debate on %s -> %s", result.Proposal.Target, result.Decision), "debate_completed", map[string]interface{}{
		"target": result.Proposal.Target, "decision": result.Decision, "confidence": result.Confidence,
	})
}

// LogInfo logs informational messages with service context.
func (al *AuditLogger) LogInfo(service, message string) {
	log.Printf("[%s][INFO] %s", service, message)
}

// LogError logs errors with service context.
func (al *AuditLogger) LogError(service, message string, err error) {
	if err != nil {
		log.Printf("[%s][ERROR] %s: %v", service, message, err)
	} else {
		log.Printf("[%s][ERROR] %s", service, message)
	}
}

// LogWarn logs warnings with service context.
func (al *AuditLogger) LogWarn(service, message string) {
	log.Printf("[%s][WARN] %s", service, message)
}

// LogDebug logs debug messages with service context (only in debug mode).
func (al *AuditLogger) LogDebug(service, message string) {
	if al.debug {
		log.Printf("[%s][DEBUG] %s", service, message)
	}
}

// SystemLog represents a log entry in the database.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey"`
	Service   string    `gorm:"size:50;index"`
	Level     string    `gorm:"size:20;index"`
	Message   string    `gorm:"type:text"`
	EventType string    `gorm:"size:50"`
	EventData string    `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName specifies the table name for SystemLog.
func (SystemLog) TableName() string {
	return "system_logs"
}

// LogToDB logs an entry to the database.
func (al *AuditLogger) LogToDB(service, level, message, eventType string, eventData map[string]interface{}) error {
	if al.db == nil {
		return fmt.Errorf("database not available")
	}

	eventJSON := ""
	if eventData != nil {
		bytes, _ := json.Marshal(eventData)
		eventJSON = string(bytes)
	}

	logEntry := SystemLog{
		Service:   service,
		Level:     level,
		Message:   message,
		EventType: eventType,
		EventData: eventJSON,
		CreatedAt: time.Now(),
	}

	return al.db.Create(&logEntry).Error
}
