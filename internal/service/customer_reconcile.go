package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/client/cloud"
	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
)

type CustomersAPI interface {
	GetCustomerChanges(ctx context.Context, since time.Time) ([]cloud.RemoteCustomer, error)
	PushCustomers(ctx context.Context, customers []cloud.RemoteCustomer) error
}

const defaultCustomerPushBatch = 200

// CustomerReconciler moves customer edits both ways with last-write-wins on
// updatedAt. A local edit that has not been accepted by the cloud yet and is
// newer than the incoming remote row is kept and pushed later.
type CustomerReconciler struct {
	Repo      repository.CustomerRepository
	Runs      repository.SyncLogRepository
	Cloud     CustomersAPI
	Activity  activity.Store
	Clock     Clock
	Logger    *zap.Logger
	PushBatch int
}

type customerApply int

const (
	customerApplied customerApply = iota
	customerKeptLocal
)

// PullCustomers applies remote changes since the last completed CUSTOMERS
// run. Each pull is recorded as a CUSTOMERS run, which is what moves the
// cursor forward.
func (s *CustomerReconciler) PullCustomers(ctx context.Context) PhaseResult {
	var res PhaseResult
	if s == nil || s.Repo == nil || s.Cloud == nil {
		return res
	}

	since, err := s.cursor(ctx)
	if err != nil {
		s.logWarn("customer cursor lookup failed", err)
		res.fail("cursor", err)
		return res
	}
	run := s.startRun(ctx, since)

	remote, err := s.Cloud.GetCustomerChanges(ctx, since)
	if err != nil {
		s.logWarn("customer changes fetch failed", err)
		res.fail("fetch", err)
		s.finishRun(ctx, run, res, 0)
		recordActivity(ctx, s.Activity, s.Logger, models.ActivityPullChanges, models.DirectionIn, false)
		return res
	}

	keptLocal := 0
	for _, rc := range remote {
		key := strings.TrimSpace(rc.ID)
		if key == "" {
			key = "unknown"
		}
		applied, err := s.applyRemote(ctx, rc)
		if err != nil {
			s.logWarn("customer apply failed", err, zap.String("customer_id", key))
			res.fail(key, err)
			continue
		}
		if applied == customerKeptLocal {
			keptLocal++
			continue
		}
		res.Synced++
	}
	s.finishRun(ctx, run, res, keptLocal)
	if len(remote) > 0 || res.Failed > 0 {
		recordActivity(ctx, s.Activity, s.Logger, models.ActivityPullChanges, models.DirectionIn, res.Failed == 0)
	}
	if s.Logger != nil {
		s.Logger.Info("customer changes pulled",
			zap.Time("since", since),
			zap.Int("received", len(remote)),
			zap.Int("applied", res.Synced),
			zap.Int("kept_local", keptLocal),
			zap.Int("failed", res.Failed),
		)
	}
	return res
}

func (s *CustomerReconciler) cursor(ctx context.Context) (time.Time, error) {
	epoch := time.Unix(0, 0).UTC()
	if s.Runs == nil {
		return epoch, nil
	}
	last, err := s.Runs.GetLatestSyncLog(ctx, models.SyncTypeCustomers, models.SyncStatusCompleted)
	if err != nil {
		return time.Time{}, err
	}
	if last == nil || last.CompletedAt == nil {
		return epoch, nil
	}
	return last.CompletedAt.UTC(), nil
}

func (s *CustomerReconciler) applyRemote(ctx context.Context, rc cloud.RemoteCustomer) (customerApply, error) {
	id := strings.TrimSpace(rc.ID)
	if id == "" {
		return 0, errors.New("remote customer has no id")
	}
	remoteUpdated := nowUTC(s.Clock)
	if rc.UpdatedAt != nil && !rc.UpdatedAt.IsZero() {
		remoteUpdated = rc.UpdatedAt.UTC()
	}

	result := customerApplied
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		local, err := s.Repo.GetCustomerTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if local != nil && hasUnpushedEdit(local) && local.UpdatedAt.After(remoteUpdated) {
			result = customerKeptLocal
			return nil
		}
		if local != nil && hasUnpushedEdit(local) && s.Logger != nil {
			s.Logger.Info("remote customer overrides older local edit",
				zap.String("customer_id", id),
				zap.Time("local_updated_at", local.UpdatedAt),
				zap.Time("remote_updated_at", remoteUpdated),
			)
		}
		next := customerFromRemote(&rc, remoteUpdated)
		if local != nil {
			next.CreatedAt = local.CreatedAt
		}
		return s.Repo.UpsertCustomerTx(ctx, tx, next)
	})
	return result, err
}

// PushCustomerUpdates sends locally edited customers in batches until none
// are pending. Only rows still unchanged after the push are marked synced.
func (s *CustomerReconciler) PushCustomerUpdates(ctx context.Context) PhaseResult {
	var res PhaseResult
	if s == nil || s.Repo == nil || s.Cloud == nil {
		return res
	}
	batch := s.PushBatch
	if batch <= 0 {
		batch = defaultCustomerPushBatch
	}

	for round := 1; ; round++ {
		if ctx.Err() != nil {
			res.addError("cancelled", ctx.Err())
			break
		}
		pending, err := s.Repo.ListCustomersPendingPush(ctx, batch)
		if err != nil {
			s.logWarn("pending customers lookup failed", err)
			res.fail("select", err)
			break
		}
		if len(pending) == 0 {
			break
		}
		payload := make([]cloud.RemoteCustomer, 0, len(pending))
		versions := make([]repository.CustomerVersion, 0, len(pending))
		for i := range pending {
			payload = append(payload, remoteFromCustomer(&pending[i]))
			versions = append(versions, repository.CustomerVersion{ID: pending[i].ID, UpdatedAt: pending[i].UpdatedAt})
		}
		if err := s.Cloud.PushCustomers(ctx, payload); err != nil {
			s.logWarn("customer push failed", err, zap.Int("customers", len(payload)))
			res.Failed += len(payload)
			res.addError(fmt.Sprintf("batch-%d", round), err)
			break
		}
		res.Synced += len(payload)
		marked, err := s.Repo.MarkCustomersSynced(ctx, versions)
		if err != nil {
			s.logWarn("customer sync mark failed", err)
			res.addError("mark", err)
			break
		}
		// a short page or nothing marked means another round would resend the same rows
		if len(pending) < batch || marked == 0 {
			break
		}
	}

	if res.Synced > 0 || res.Failed > 0 {
		recordActivity(ctx, s.Activity, s.Logger, models.ActivityRestaurantData, models.DirectionOut, res.Failed == 0)
	}
	return res
}

func (s *CustomerReconciler) startRun(ctx context.Context, since time.Time) *models.SyncLog {
	if s.Runs == nil {
		return nil
	}
	meta, _ := json.Marshal(map[string]any{"direction": "pull", "since": since.Format(time.RFC3339Nano)})
	run := &models.SyncLog{
		ID:        uuid.NewString(),
		SyncType:  models.SyncTypeCustomers,
		Status:    models.SyncStatusInProgress,
		StartedAt: nowUTC(s.Clock),
		Metadata:  datatypes.JSON(meta),
	}
	if err := s.Runs.InsertSyncLog(ctx, run); err != nil {
		s.logWarn("customer run create failed", err)
		return nil
	}
	return run
}

func (s *CustomerReconciler) finishRun(ctx context.Context, run *models.SyncLog, res PhaseResult, keptLocal int) {
	if run == nil {
		return
	}
	completed := nowUTC(s.Clock)
	duration := int(completed.Sub(run.StartedAt) / time.Second)
	run.Status = DeriveStatus(res.Synced, res.Failed)
	run.ItemsSynced = res.Synced
	run.ItemsFailed = res.Failed
	run.CompletedAt = &completed
	run.Duration = &duration
	if len(res.Errors) > 0 {
		b, _ := json.Marshal(res.Errors)
		run.Errors = datatypes.JSON(b)
	}
	var meta map[string]any
	_ = json.Unmarshal(run.Metadata, &meta)
	if meta == nil {
		meta = map[string]any{}
	}
	meta["keptLocal"] = keptLocal
	b, _ := json.Marshal(meta)
	run.Metadata = datatypes.JSON(b)
	if err := s.Runs.UpdateSyncLog(ctx, run); err != nil {
		s.logWarn("customer run update failed", err, zap.String("run_id", run.ID))
	}
}

func hasUnpushedEdit(c *models.Customer) bool {
	return c.LastSyncedAt == nil || c.UpdatedAt.After(*c.LastSyncedAt)
}

// customerFromRemote maps a cloud customer onto a local row stamped as in
// sync at updatedAt.
func customerFromRemote(rc *cloud.RemoteCustomer, updatedAt time.Time) *models.Customer {
	if rc.UpdatedAt != nil && !rc.UpdatedAt.IsZero() {
		updatedAt = rc.UpdatedAt.UTC().Truncate(time.Microsecond)
	}
	c := &models.Customer{
		ID:                  strings.TrimSpace(rc.ID),
		FirstName:           strings.TrimSpace(rc.FirstName),
		LastName:            strings.TrimSpace(rc.LastName),
		Email:               normalizedEmail(rc.Email),
		WhatsappPhoneNumber: trimmedPtr(rc.WhatsappPhoneNumber),
		BirthDate:           utcPtr(rc.BirthDate),
		IsActive:            rc.IsActive == nil || *rc.IsActive,
		IsBanned:            rc.IsBanned != nil && *rc.IsBanned,
		BanReason:           rc.BanReason,
		UpdatedAt:           updatedAt,
		LastSyncedAt:        timePtr(updatedAt),
	}
	for _, ra := range rc.Addresses {
		if strings.TrimSpace(ra.ID) == "" {
			continue
		}
		c.Addresses = append(c.Addresses, *addressFromRemote(ra, c.ID))
	}
	return c
}

func addressFromRemote(ra cloud.RemoteAddress, customerID string) *models.Address {
	return &models.Address{
		ID:                   strings.TrimSpace(ra.ID),
		CustomerID:           customerID,
		Name:                 ra.Name,
		Street:               ra.Street,
		Number:               ra.Number,
		InteriorNumber:       ra.InteriorNumber,
		Neighborhood:         ra.Neighborhood,
		City:                 ra.City,
		State:                ra.State,
		ZipCode:              ra.ZipCode,
		Country:              ra.Country,
		DeliveryInstructions: ra.DeliveryInstructions,
		Latitude:             ra.Latitude,
		Longitude:            ra.Longitude,
		IsDefault:            ra.IsDefault,
	}
}

func remoteFromCustomer(c *models.Customer) cloud.RemoteCustomer {
	active := c.IsActive
	banned := c.IsBanned
	out := cloud.RemoteCustomer{
		ID:                  c.ID,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		Email:               c.Email,
		WhatsappPhoneNumber: c.WhatsappPhoneNumber,
		BirthDate:           c.BirthDate,
		IsActive:            &active,
		IsBanned:            &banned,
		BanReason:           c.BanReason,
		UpdatedAt:           timePtr(c.UpdatedAt),
	}
	for _, a := range c.Addresses {
		out.Addresses = append(out.Addresses, cloud.RemoteAddress{
			ID:                   a.ID,
			Name:                 a.Name,
			Street:               a.Street,
			Number:               a.Number,
			InteriorNumber:       a.InteriorNumber,
			Neighborhood:         a.Neighborhood,
			City:                 a.City,
			State:                a.State,
			ZipCode:              a.ZipCode,
			Country:              a.Country,
			DeliveryInstructions: a.DeliveryInstructions,
			Latitude:             a.Latitude,
			Longitude:            a.Longitude,
			IsDefault:            a.IsDefault,
		})
	}
	return out
}

func normalizedEmail(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*v))
	if s == "" {
		return nil
	}
	return &s
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func (s *CustomerReconciler) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
