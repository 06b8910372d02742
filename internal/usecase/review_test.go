package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func reviewRepo(asset GeneratedAsset) *fakeRepo {
	return &fakeRepo{
		getGeneratedAssetByID: func(ctx context.Context, id uuid.UUID) (GeneratedAsset, error) {
			return asset, nil
		},
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Desk", ASIN: "B000000001"}, nil
		},
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id, Name: "main"}, nil
		},
	}
}

func TestTransitionAssetRequiresActor(t *testing.T) {
	u, _ := newTestUsecase(&fakeRepo{})

	_, err := u.TransitionAsset(context.Background(), TransitionAssetOption{
		AssetID: uuid.New(),
		Target:  AssetStatusApproved,
	})
	var ve ErrValidation
	if !errors.As(err, &ve) || ve.Code != "actor_missing" {
		t.Fatalf("err = %v, want actor_missing", err)
	}
}

func TestTransitionAssetRejectsNonReviewTargets(t *testing.T) {
	u, _ := newTestUsecase(&fakeRepo{})
	ctx := actorContext(uuid.New())

	for _, target := range []AssetStatus{AssetStatusPending, AssetStatusCompleted, AssetStatusFailed} {
		_, err := u.TransitionAsset(ctx, TransitionAssetOption{AssetID: uuid.New(), Target: target})
		var ve ErrValidation
		if !errors.As(err, &ve) || ve.Code != "invalid_target_status" {
			t.Errorf("target %s: err = %v, want invalid_target_status", target, err)
		}
	}
}

func TestTransitionAssetRejectsUnreviewableSource(t *testing.T) {
	for _, status := range []AssetStatus{AssetStatusPending, AssetStatusFailed} {
		asset := GeneratedAsset{ID: uuid.New(), ProductID: uuid.New(), Status: status}
		u, _ := newTestUsecase(reviewRepo(asset))

		_, err := u.TransitionAsset(actorContext(uuid.New()), TransitionAssetOption{
			AssetID: asset.ID,
			Target:  AssetStatusApproved,
		})
		var ve ErrValidation
		if !errors.As(err, &ve) || ve.Code != "asset_not_reviewable" {
			t.Errorf("from %s: err = %v, want asset_not_reviewable", status, err)
		}
	}
}

func TestTransitionAssetSameStatusIsNoOp(t *testing.T) {
	asset := GeneratedAsset{ID: uuid.New(), ProductID: uuid.New(), Status: AssetStatusApproved, LockVersion: 2}
	repo := reviewRepo(asset)
	repo.updateAssetStatusCAS = func(ctx context.Context, id uuid.UUID, lv int, st AssetStatus) (GeneratedAsset, error) {
		t.Fatal("no-op transition must not write")
		return GeneratedAsset{}, nil
	}
	repo.createComment = func(ctx context.Context, c Comment) (Comment, error) {
		t.Fatal("no-op transition must not create a comment")
		return Comment{}, nil
	}
	repo.incrementDailyAnalytics = func(ctx context.Context, day time.Time, a, r int) error {
		t.Fatal("no-op transition must not count")
		return nil
	}
	u, _ := newTestUsecase(repo)

	got, err := u.TransitionAsset(actorContext(uuid.New()), TransitionAssetOption{
		AssetID: asset.ID,
		Target:  AssetStatusApproved,
		Comment: "still approved",
	})
	if err != nil {
		t.Fatalf("TransitionAsset: %v", err)
	}
	if got.LockVersion != 2 {
		t.Errorf("lock version = %d, want untouched 2", got.LockVersion)
	}
}

func TestTransitionAssetConflictPassesThrough(t *testing.T) {
	asset := GeneratedAsset{ID: uuid.New(), ProductID: uuid.New(), Status: AssetStatusCompleted, LockVersion: 1}
	repo := reviewRepo(asset)
	repo.updateAssetStatusCAS = func(ctx context.Context, id uuid.UUID, lv int, st AssetStatus) (GeneratedAsset, error) {
		return GeneratedAsset{}, ErrConflict{Code: "asset_version_conflict", Message: "asset was modified concurrently"}
	}
	u, _ := newTestUsecase(repo)

	_, err := u.TransitionAsset(actorContext(uuid.New()), TransitionAssetOption{
		AssetID: asset.ID,
		Target:  AssetStatusApproved,
	})
	var ce ErrConflict
	if !errors.As(err, &ce) || ce.Code != "asset_version_conflict" {
		t.Fatalf("err = %v, want asset_version_conflict", err)
	}
}

func TestTransitionAssetApprovalSideEffects(t *testing.T) {
	asset := GeneratedAsset{ID: uuid.New(), ProductID: uuid.New(), Status: AssetStatusCompleted, LockVersion: 0}
	userID := uuid.New()

	var (
		casCalled    bool
		approvedIncr int
		rejectedIncr int
		activity     *ActivityLog
		rolledUp     bool
	)
	repo := reviewRepo(asset)
	repo.updateAssetStatusCAS = func(ctx context.Context, id uuid.UUID, lv int, st AssetStatus) (GeneratedAsset, error) {
		casCalled = true
		if lv != 0 {
			t.Errorf("CAS lock version = %d, want 0", lv)
		}
		updated := asset
		updated.Status = st
		updated.LockVersion = lv + 1
		return updated, nil
	}
	repo.incrementDailyAnalytics = func(ctx context.Context, day time.Time, a, r int) error {
		approvedIncr += a
		rejectedIncr += r
		return nil
	}
	repo.createActivityLog = func(ctx context.Context, al ActivityLog) (ActivityLog, error) {
		activity = &al
		al.ID = uuid.New()
		return al, nil
	}
	repo.listGeneratedAssets = func(ctx context.Context, opt ListGeneratedAssetsOption) ([]GeneratedAsset, int, error) {
		rolledUp = true
		return []GeneratedAsset{{Status: AssetStatusApproved}}, 1, nil
	}
	u, _ := newTestUsecase(repo)

	got, err := u.TransitionAsset(actorContext(userID), TransitionAssetOption{
		AssetID: asset.ID,
		Target:  AssetStatusApproved,
	})
	if err != nil {
		t.Fatalf("TransitionAsset: %v", err)
	}
	if !casCalled {
		t.Error("CAS write not issued")
	}
	if got.Status != AssetStatusApproved || got.LockVersion != 1 {
		t.Errorf("asset = %s lv %d, want APPROVED lv 1", got.Status, got.LockVersion)
	}
	if approvedIncr != 1 || rejectedIncr != 0 {
		t.Errorf("analytics = +%d/+%d, want +1/+0", approvedIncr, rejectedIncr)
	}
	if activity == nil {
		t.Fatal("no activity log written")
	}
	if activity.Action != "IMAGE_APPROVED" || activity.UserID != userID {
		t.Errorf("activity = %s by %s", activity.Action, activity.UserID)
	}
	if !rolledUp {
		t.Error("product rollup not triggered")
	}
}

func TestTransitionAssetRejectionCountsRejected(t *testing.T) {
	asset := GeneratedAsset{ID: uuid.New(), ProductID: uuid.New(), Status: AssetStatusCompleted}

	var approved, rejected int
	repo := reviewRepo(asset)
	repo.incrementDailyAnalytics = func(ctx context.Context, day time.Time, a, r int) error {
		approved += a
		rejected += r
		return nil
	}
	u, _ := newTestUsecase(repo)

	if _, err := u.TransitionAsset(actorContext(uuid.New()), TransitionAssetOption{
		AssetID: asset.ID,
		Target:  AssetStatusRejected,
	}); err != nil {
		t.Fatalf("TransitionAsset: %v", err)
	}
	if approved != 0 || rejected != 1 {
		t.Errorf("analytics = +%d/+%d, want +0/+1", approved, rejected)
	}
}

func TestTransitionAssetReworkTagsComment(t *testing.T) {
	asset := GeneratedAsset{ID: uuid.New(), ProductID: uuid.New(), Status: AssetStatusCompleted}

	var comment *Comment
	var counted bool
	repo := reviewRepo(asset)
	repo.createComment = func(ctx context.Context, c Comment) (Comment, error) {
		comment = &c
		c.ID = uuid.New()
		return c, nil
	}
	repo.incrementDailyAnalytics = func(ctx context.Context, day time.Time, a, r int) error {
		counted = true
		return nil
	}
	u, _ := newTestUsecase(repo)

	if _, err := u.TransitionAsset(actorContext(uuid.New()), TransitionAssetOption{
		AssetID: asset.ID,
		Target:  AssetStatusNeedsRework,
		Comment: "shadow is wrong",
	}); err != nil {
		t.Fatalf("TransitionAsset: %v", err)
	}
	if comment == nil {
		t.Fatal("no comment created")
	}
	if comment.IssueTag != "REWORK_REQUESTED" {
		t.Errorf("issue tag = %q, want REWORK_REQUESTED", comment.IssueTag)
	}
	if counted {
		t.Error("NEEDS_REWORK must not touch analytics")
	}
}
