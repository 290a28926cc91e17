// Package sync holds the reconciliation core: resolve a ServiceNow
// application and its people to Onspring record ids in one pass.
package sync

import (
	"context"
	"strconv"
	"strings"
	gosync "sync"

	"sync-bridge/internal/common/logger"
	"sync-bridge/internal/servicenow"
)

// CatalogAPI is the ServiceNow surface the sync consumes.
type CatalogAPI interface {
	GetApplicationByName(ctx context.Context, name string) (*servicenow.Application, error)
	GetUserByLink(ctx context.Context, link string) (*servicenow.User, error)
}

// PersonResolver resolves a display name to a registry record id.
type PersonResolver interface {
	ResolveOrCreatePerson(ctx context.Context, displayName string, schema UserSchema) (int, error)
}

// Orchestrator runs the end-to-end reconciliation for one application. It is
// request-scoped and holds no state across calls.
type Orchestrator struct {
	catalog  CatalogAPI
	registry RegistryAPI
	resolver PersonResolver
	logger   logger.Logger
}

func NewOrchestrator(catalog CatalogAPI, registry RegistryAPI, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		catalog:  catalog,
		registry: registry,
		resolver: NewResolver(registry, log),
		logger:   log,
	}
}

// Execute performs one sync pass:
//  1. fetch the application by name,
//  2. dereference the owner and L3 links concurrently,
//  3. resolve owner, L3 and all regulatory tags concurrently,
//  4. assemble the response.
//
// Every batch is join-all with fail-fast semantics: the first failure fails
// the whole request and any sibling results are discarded. A partially
// synced response is never returned.
func (o *Orchestrator) Execute(ctx context.Context, req *Request) (*Response, error) {
	app, err := o.catalog.GetApplicationByName(ctx, req.AppName)
	if err != nil {
		return nil, err
	}

	o.logger.Info("fetched application", map[string]interface{}{
		"appName": app.Name,
		"number":  app.Number,
	})

	owner, l3, err := o.fetchLinkedUsers(ctx, app)
	if err != nil {
		return nil, err
	}

	ownerID, l3ID, regulatoryIDs, err := o.resolveIdentities(ctx, req, owner.Name, l3.Name, app.RegulatoryCompliance)
	if err != nil {
		return nil, err
	}

	o.logger.Info("sync complete", map[string]interface{}{
		"appName":  app.Name,
		"owner":    ownerID,
		"l3":       l3ID,
		"tagCount": len(regulatoryIDs),
	})

	return &Response{
		AppName:     app.Name,
		ShortName:   app.Number,
		Description: app.ShortDescription,
		InstallType: app.InstallType,
		CloudModel:  app.CloudModel,
		Owner:       ownerID,
		L3:          l3ID,
		Regulatory:  joinRecordIDs(regulatoryIDs),
	}, nil
}

// fetchLinkedUsers dereferences the application's owner and L3 links in
// parallel. Both must succeed.
func (o *Orchestrator) fetchLinkedUsers(ctx context.Context, app *servicenow.Application) (*servicenow.User, *servicenow.User, error) {
	var (
		wg       gosync.WaitGroup
		owner    *servicenow.User
		l3       *servicenow.User
		ownerErr error
		l3Err    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		owner, ownerErr = o.catalog.GetUserByLink(ctx, app.PrimaryITOwner.Link)
	}()
	go func() {
		defer wg.Done()
		l3, l3Err = o.catalog.GetUserByLink(ctx, app.L3Name.Link)
	}()
	wg.Wait()

	if ownerErr != nil {
		return nil, nil, ownerErr
	}
	if l3Err != nil {
		return nil, nil, l3Err
	}
	return owner, l3, nil
}

// resolveIdentities runs the N+2 batch: owner and L3 find-or-create plus one
// lookup-only query per regulatory tag. Tag ids keep input order; a tag with
// no record stays 0 (tags are pre-provisioned, never created here).
func (o *Orchestrator) resolveIdentities(ctx context.Context, req *Request, ownerName, l3Name, regulatory string) (int, int, []int, error) {
	// Comma split with no trimming: a tag with surrounding whitespace will
	// not match its registry record. Documented literal behavior.
	tags := strings.Split(regulatory, ",")
	schema := req.UserSchema()

	ids := make([]int, len(tags)+2)
	errs := make([]error, len(tags)+2)

	var wg gosync.WaitGroup
	wg.Add(len(tags) + 2)

	go func() {
		defer wg.Done()
		ids[0], errs[0] = o.resolver.ResolveOrCreatePerson(ctx, ownerName, schema)
	}()
	go func() {
		defer wg.Done()
		ids[1], errs[1] = o.resolver.ResolveOrCreatePerson(ctx, l3Name, schema)
	}()
	for i, tag := range tags {
		go func(i int, tag string) {
			defer wg.Done()
			ids[i+2], errs[i+2] = o.registry.GetRecordIDByFieldValue(ctx, req.OnspringRegTypeAppID, req.OnspringRegTypeIDFieldID, tag)
		}(i, tag)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return 0, 0, nil, err
		}
	}

	return ids[0], ids[1], ids[2:], nil
}

func joinRecordIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}
