package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"repair-desk/internal/domain"
	"repair-desk/internal/domain/mocks"
)

func TestRetryCompensations(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	orphanID := env.register(t, "orphan@example.com", "")

	entry := &domain.Compensation{IdentityID: orphanID, Reason: "insert failed"}
	require.NoError(t, env.comps.Record(ctx, entry))
	gone := &domain.Compensation{IdentityID: "already-deleted", Reason: "insert failed"}
	require.NoError(t, env.comps.Record(ctx, gone))

	uc := NewRetryCompensations(env.identity, env.comps, env.logger)
	report, err := uc.Execute(ctx, 0)

	require.NoError(t, err)
	assert.Equal(t, &RetryReport{Processed: 2, Completed: 2}, report)

	exists, _ := env.identity.IdentityExists(ctx, orphanID)
	assert.False(t, exists)
	pending, _ := env.comps.ListPending(ctx, 10)
	assert.Empty(t, pending)
}

func TestRetryCompensations_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	comps := mocks.NewMockCompensationLog(ctrl)
	uc := NewRetryCompensations(identity, comps, newTestEnv().logger)

	comps.EXPECT().ListPending(gomock.Any(), 5).Return([]*domain.Compensation{
		{ID: "c1", IdentityID: "i1"},
		{ID: "c2", IdentityID: "i2"},
	}, nil)
	identity.EXPECT().DeleteIdentity(gomock.Any(), "i1").Return(nil)
	comps.EXPECT().MarkDone(gomock.Any(), "c1").Return(nil)
	identity.EXPECT().DeleteIdentity(gomock.Any(), "i2").Return(errConnRefused)
	comps.EXPECT().MarkFailed(gomock.Any(), "c2", errConnRefused.Error()).Return(nil)

	report, err := uc.Execute(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Failed)
}

func TestRetryCompensations_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	comps := mocks.NewMockCompensationLog(ctrl)
	uc := NewRetryCompensations(mocks.NewMockIdentityProvider(ctrl), comps, newTestEnv().logger)

	listErr := errors.New("store offline")
	comps.EXPECT().ListPending(gomock.Any(), defaultRetryBatch).Return(nil, listErr)

	_, err := uc.Execute(context.Background(), -1)
	assert.True(t, errors.Is(err, listErr))
}
