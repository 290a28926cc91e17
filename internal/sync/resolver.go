package sync

import (
	"context"
	"strings"

	"sync-bridge/internal/common/logger"
	"sync-bridge/internal/common/metrics"
)

const emailDomain = "@example.com"

// RegistryAPI is the Onspring surface the sync consumes.
type RegistryAPI interface {
	GetRecordIDByFieldValue(ctx context.Context, appID, fieldID int, value string) (int, error)
	SaveRecord(ctx context.Context, appID int, fields map[int]string) (int, error)
}

// Resolver implements find-or-create for person records keyed by display
// name. Two people with identical display names resolve to the same record;
// that collision is accepted.
type Resolver struct {
	registry RegistryAPI
	logger   logger.Logger
}

func NewResolver(registry RegistryAPI, log logger.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		logger:   log,
	}
}

// ResolveOrCreatePerson returns the id of the registry record whose full-name
// field equals displayName, creating the record if none exists. At most one
// create is issued per resolution, and only after a successful miss.
func (r *Resolver) ResolveOrCreatePerson(ctx context.Context, displayName string, schema UserSchema) (int, error) {
	id, err := r.registry.GetRecordIDByFieldValue(ctx, schema.AppID, schema.FullNameFieldID, displayName)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}

	// Naive split: text before the first space is the first name, everything
	// after it the last name. A single-word name yields an empty last name.
	firstName, lastName := splitDisplayName(displayName)
	username := strings.ToLower(strings.Replace(displayName, " ", ".", 1))

	fields := map[int]string{
		schema.FirstNameFieldID: firstName,
		schema.LastNameFieldID:  lastName,
		schema.UsernameFieldID:  username,
		schema.EmailFieldID:     username + emailDomain,
		schema.StatusFieldID:    schema.StatusValue,
		schema.TierFieldID:      schema.TierValue,
	}

	id, err = r.registry.SaveRecord(ctx, schema.AppID, fields)
	if err != nil {
		return 0, err
	}

	metrics.RegistryRecordsCreated.WithLabelValues("person").Inc()
	r.logger.Info("created person record", map[string]interface{}{
		"displayName": displayName,
		"recordId":    id,
	})

	return id, nil
}

func splitDisplayName(displayName string) (string, string) {
	parts := strings.SplitN(displayName, " ", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
