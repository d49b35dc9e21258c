//go:build unit

package queries_test

import (
	"context"
	"errors"
	"testing"

	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/domain/validation"
	"groupbuy/internal/infra"
	"groupbuy/internal/usecase/queries"
	"groupbuy/tests/common/builder"
	queriesmock "groupbuy/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReservationQueries_Token(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := queriesmock.NewMockReservationReadStore(ctrl)
	q := queries.NewReservationQueries(store)

	shopper := builder.NewUserBuilder()
	rb := builder.NewReservationBuilder().ForUser(shopper.ID)

	store.EXPECT().FindByID(gomock.Any(), rb.ID).Return(rb.BuildReadModel(), nil).Times(2)

	token, err := q.Token(context.Background(), shopper.BuildSession(), rb.ID)
	require.NoError(t, err)
	parsed, err := validation.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, rb.ID, parsed.ReservationID())

	_, err = q.Token(context.Background(), builder.NewUserBuilder().BuildSession(), rb.ID)
	assert.ErrorIs(t, err, queries.ErrReservationAccess)

	missing := uuid.New()
	store.EXPECT().FindByID(gomock.Any(), missing).Return(nil, infra.RepositoryErrorOf(infra.KindNotFound, "reservation not found"))
	_, err = q.Token(context.Background(), shopper.BuildSession(), missing)
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestReservationQueries_GetMine(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := queriesmock.NewMockReservationReadStore(ctrl)
	q := queries.NewReservationQueries(store)

	shopper := builder.NewUserBuilder()
	offerID := uuid.New()

	_, err := q.GetMine(context.Background(), user.Session{}, offerID)
	assert.ErrorIs(t, err, user.ErrNoSession)

	boom := errors.New("connection reset")
	store.EXPECT().FindLatestByOfferAndUser(gomock.Any(), offerID, shopper.ID).Return(nil, boom)
	_, err = q.GetMine(context.Background(), shopper.BuildSession(), offerID)
	assert.ErrorIs(t, err, boom, "only not-found errors are translated")
}

func TestReservationQueries_ListMine(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := queriesmock.NewMockReservationReadStore(ctrl)
	q := queries.NewReservationQueries(store)
	shopper := builder.NewUserBuilder()

	views := []*queries.ReservationView{
		builder.NewReservationBuilder().ForUser(shopper.ID).BuildReadModel(),
		builder.NewReservationBuilder().ForUser(shopper.ID).BuildReadModel(),
		builder.NewReservationBuilder().ForUser(shopper.ID).BuildReadModel(),
	}
	store.EXPECT().ListByUser(gomock.Any(), queries.ReservationListFilter{UserID: shopper.ID, Limit: 3}).Return(views, nil)

	page, err := q.ListMine(context.Background(), shopper.BuildSession(), "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotNil(t, page.NextCursor)

	pos, err := queries.ParseAfter(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, views[1].ID, pos.ID)
}
