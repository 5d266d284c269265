package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/smilemakc/mbflow/go/internal/application/engine"
	"github.com/smilemakc/mbflow/go/internal/domain/repository"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/cache"
	storagemodels "github.com/smilemakc/mbflow/go/internal/infrastructure/storage/models"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// EventListener fires event-type triggers off a Redis pub/sub feed: each
// event type owns one channel, and any trigger registered for that type is
// checked against its filter and executed if it matches.
type EventListener struct {
	triggerRepo  repository.TriggerRepository
	workflowRepo repository.WorkflowRepository
	executionMgr *engine.ExecutionManager
	cache        *cache.RedisCache

	pubsub      *redis.PubSub
	triggers    map[string][]*models.Trigger // eventType -> triggers
	mu          sync.RWMutex
	stopChan    chan struct{}
	stoppedChan chan struct{}
	isRunning   bool
}

// EventListenerConfig holds the listener's dependencies.
type EventListenerConfig struct {
	TriggerRepo  repository.TriggerRepository
	WorkflowRepo repository.WorkflowRepository
	ExecutionMgr *engine.ExecutionManager
	Cache        *cache.RedisCache
}

// NewEventListener returns an idle listener; Start subscribes it.
func NewEventListener(cfg EventListenerConfig) (*EventListener, error) {
	return &EventListener{
		triggerRepo:  cfg.TriggerRepo,
		workflowRepo: cfg.WorkflowRepo,
		executionMgr: cfg.ExecutionMgr,
		cache:        cfg.Cache,
		triggers:     make(map[string][]*models.Trigger),
		stopChan:     make(chan struct{}),
		stoppedChan:  make(chan struct{}),
	}, nil
}

// Start loads the given event-type triggers and subscribes to their
// channels. Triggers of other types are ignored; the supervisor routes
// those to the cron scheduler or webhook path instead.
func (el *EventListener) Start(ctx context.Context, triggers []*storagemodels.TriggerModel) error {
	el.mu.Lock()
	defer el.mu.Unlock()

	for _, trigger := range triggers {
		if trigger.Type == string(models.TriggerTypeEvent) {
			domainTrigger := el.modelToDomain(trigger)
			if err := el.addTriggerLocked(ctx, domainTrigger); err != nil {
				fmt.Printf("failed to add event trigger %s: %v\n", trigger.ID, err)
				continue
			}
		}
	}

	if len(el.triggers) > 0 {
		channels := el.getChannels()
		el.pubsub = el.cache.Client().Subscribe(ctx, channels...)

		el.isRunning = true
		go el.listen(ctx)
	} else {
		close(el.stoppedChan)
	}

	return nil
}

// Stop unsubscribes and waits for the listen loop to exit.
func (el *EventListener) Stop() error {
	el.mu.Lock()
	isRunning := el.isRunning
	el.mu.Unlock()

	if isRunning {
		close(el.stopChan)
	}

	if el.pubsub != nil {
		if err := el.pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close pub/sub: %w", err)
		}
	}

	if isRunning {
		<-el.stoppedChan
	}

	return nil
}

// AddTrigger registers trigger and, if the listener is already running,
// subscribes to its event channel immediately.
func (el *EventListener) AddTrigger(ctx context.Context, trigger *models.Trigger) error {
	el.mu.Lock()
	defer el.mu.Unlock()

	return el.addTriggerLocked(ctx, trigger)
}

func (el *EventListener) addTriggerLocked(ctx context.Context, trigger *models.Trigger) error {
	if trigger.Type != models.TriggerTypeEvent {
		return nil
	}

	eventType, ok := trigger.Config["event_type"].(string)
	if !ok || eventType == "" {
		return fmt.Errorf("event_type not found in trigger config")
	}

	el.triggers[eventType] = append(el.triggers[eventType], trigger)

	if el.pubsub != nil {
		channel := el.getEventChannel(eventType)
		if err := el.pubsub.Subscribe(ctx, channel); err != nil {
			return fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
		}
	}

	return nil
}

// RemoveTrigger unregisters a trigger and unsubscribes its channel once no
// other trigger needs it.
func (el *EventListener) RemoveTrigger(ctx context.Context, triggerID string) error {
	el.mu.Lock()
	defer el.mu.Unlock()

	for eventType, triggers := range el.triggers {
		for i, trigger := range triggers {
			if trigger.ID == triggerID {
				el.triggers[eventType] = append(triggers[:i], triggers[i+1:]...)

				if len(el.triggers[eventType]) == 0 {
					delete(el.triggers, eventType)
					if el.pubsub != nil {
						channel := el.getEventChannel(eventType)
						if err := el.pubsub.Unsubscribe(ctx, channel); err != nil {
							fmt.Printf("failed to unsubscribe from channel %s: %v\n", channel, err)
						}
					}
				}

				return nil
			}
		}
	}

	return nil
}

func (el *EventListener) listen(ctx context.Context) {
	defer close(el.stoppedChan)

	ch := el.pubsub.Channel()

	for {
		select {
		case <-el.stopChan:
			return
		case msg := <-ch:
			if msg == nil {
				continue
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				fmt.Printf("failed to parse event: %v\n", err)
				continue
			}

			el.handleEvent(ctx, event)
		}
	}
}

func (el *EventListener) handleEvent(ctx context.Context, event Event) {
	el.mu.RLock()
	triggers := el.triggers[event.Type]
	el.mu.RUnlock()

	for _, trigger := range triggers {
		if !el.matchesFilter(event, trigger) {
			continue
		}

		go func(t *models.Trigger) {
			execCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if err := el.executeTrigger(execCtx, t, event.Data); err != nil {
				fmt.Printf("trigger %s execution failed: %v\n", t.ID, err)
			}
		}(trigger)
	}
}

func (el *EventListener) matchesFilter(event Event, trigger *models.Trigger) bool {
	filter, ok := trigger.Config["filter"].(map[string]interface{})
	if !ok || len(filter) == 0 {
		return true
	}

	if source, ok := filter["source"].(string); ok && source != "" {
		if event.Source != source {
			return false
		}
	}

	for key, expectedValue := range filter {
		if key == "source" {
			continue
		}

		actualValue, exists := event.Data[key]
		if !exists || actualValue != expectedValue {
			return false
		}
	}

	return true
}

func (el *EventListener) executeTrigger(ctx context.Context, trigger *models.Trigger, eventData map[string]interface{}) error {
	input := make(map[string]interface{})

	if defaultInput, ok := trigger.Config["input"].(map[string]interface{}); ok {
		for k, v := range defaultInput {
			input[k] = v
		}
	}

	for k, v := range eventData {
		input[k] = v
	}

	_, err := el.executionMgr.Execute(ctx, trigger.WorkflowID, input, nil)
	if err != nil {
		return fmt.Errorf("failed to execute workflow: %w", err)
	}

	state, err := LoadTriggerState(ctx, el.cache, trigger.ID)
	if err != nil {
		state = NewTriggerState(trigger.ID)
	}
	state.MarkExecuted()

	if err := state.Save(ctx, el.cache); err != nil {
		fmt.Printf("failed to save trigger state: %v\n", err)
	}

	triggerUUID, _ := uuid.Parse(trigger.ID)
	if err := el.triggerRepo.MarkTriggered(ctx, triggerUUID); err != nil {
		fmt.Printf("failed to mark trigger as triggered: %v\n", err)
	}

	return nil
}

func (el *EventListener) getChannels() []string {
	channels := make([]string, 0, len(el.triggers))
	for eventType := range el.triggers {
		channels = append(channels, el.getEventChannel(eventType))
	}
	return channels
}

func (el *EventListener) getEventChannel(eventType string) string {
	return fmt.Sprintf("mbflow:events:%s", eventType)
}

func (el *EventListener) modelToDomain(tm *storagemodels.TriggerModel) *models.Trigger {
	trigger := &models.Trigger{
		ID:         tm.ID.String(),
		WorkflowID: tm.WorkflowID.String(),
		Type:       models.TriggerType(tm.Type),
		Config:     make(map[string]interface{}),
		Enabled:    tm.Enabled,
		CreatedAt:  tm.CreatedAt,
		UpdatedAt:  tm.UpdatedAt,
	}

	if tm.Config != nil {
		trigger.Config = map[string]interface{}(tm.Config)
	}

	if tm.LastTriggeredAt != nil {
		trigger.LastRun = tm.LastTriggeredAt
	}

	return trigger
}

// Event is a message published to a Redis event channel and fanned out to
// any event-type trigger subscribed to its Type.
type Event struct {
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// PublishEvent publishes event to its type's Redis channel.
func PublishEvent(ctx context.Context, cache *cache.RedisCache, event Event) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := fmt.Sprintf("mbflow:events:%s", event.Type)
	if err := cache.Client().Publish(ctx, channel, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
