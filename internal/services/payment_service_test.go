package services

import (
	"context"
	"net/http"
	"testing"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_CreateAndVerifySuccess(t *testing.T) {
	db := newTestDB(t)
	gw := &stubGateway{order: "pi_123", succeed: true}
	svc := newTestContainer(t, gw)
	user := createUser(t, db, "buyer")
	plan := createPlan(t, db, "Pro", 12.345)
	ctx := context.Background()

	created, err := svc.PaymentService.CreatePayment(ctx, db, user.ID, &dto.CreatePaymentRequest{PlanID: plan.ID, PaymentMethod: "stripe"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", created.OrderID)
	assert.Equal(t, "secret_"+created.TransactionID, created.ClientSecret)
	assert.Equal(t, models.PaymentStatusPending, created.Status)
	assert.Equal(t, "INR", created.Currency)

	resp, err := svc.PaymentService.VerifyPayment(ctx, db, user, &dto.VerifyPaymentRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, resp.Status)
	assert.Equal(t, created.TransactionID, gw.last.TransactionID)
	assert.Equal(t, "pi_123", gw.last.OrderReference)

	var stored models.Payment
	require.NoError(t, db.Where("transaction_id = ?", created.TransactionID).First(&stored).Error)
	meta := stored.MetadataMap()
	assert.Equal(t, "pi_123", meta["stripe_payment_intent"])
	assert.Equal(t, "succeeded", meta["gateway_status"])

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.True(t, reloaded.IsPremium)

	var sub models.UserSubscription
	require.NoError(t, db.Where("user_id = ? AND plan_id = ?", user.ID, plan.ID).First(&sub).Error)
	assert.True(t, sub.Active)
	require.NotNil(t, sub.PaymentID)
	assert.Equal(t, created.TransactionID, *sub.PaymentID)
}

func TestPayment_VerifyFailureIsTerminal(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, &stubGateway{order: "pi_9"})
	user := createUser(t, db, "buyer")
	plan := createPlan(t, db, "Pro", 10)
	ctx := context.Background()

	created, err := svc.PaymentService.CreatePayment(ctx, db, user.ID, &dto.CreatePaymentRequest{PlanID: plan.ID, PaymentMethod: "stripe"})
	require.NoError(t, err)

	_, err = svc.PaymentService.VerifyPayment(ctx, db, user, &dto.VerifyPaymentRequest{TransactionID: created.TransactionID})
	requireHTTPCode(t, err, http.StatusBadRequest)

	// повторная проверка не обращается к шлюзу и возвращает текущий статус
	resp, err := svc.PaymentService.VerifyPayment(ctx, db, user, &dto.VerifyPaymentRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, resp.Status)
}

func TestPayment_VerifyRejectsForeignIntent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, &stubGateway{order: "pi_new", foreign: true})
	user := createUser(t, db, "buyer")
	plan := createPlan(t, db, "Enterprise", 999)
	ctx := context.Background()

	created, err := svc.PaymentService.CreatePayment(ctx, db, user.ID, &dto.CreatePaymentRequest{PlanID: plan.ID, PaymentMethod: "stripe"})
	require.NoError(t, err)

	_, err = svc.PaymentService.VerifyPayment(ctx, db, user, &dto.VerifyPaymentRequest{TransactionID: created.TransactionID, PaymentID: "pi_old"})
	requireHTTPCode(t, err, http.StatusBadRequest)

	// платеж остается pending, план не выдан
	var stored models.Payment
	require.NoError(t, db.Where("transaction_id = ?", created.TransactionID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.False(t, reloaded.IsPremium)

	var subs int64
	require.NoError(t, db.Model(&models.UserSubscription{}).Where("user_id = ?", user.ID).Count(&subs).Error)
	assert.Zero(t, subs)
}

func TestPayment_VerifyForeignTransaction(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, &stubGateway{order: "pi_1", succeed: true})
	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")
	plan := createPlan(t, db, "Pro", 10)
	ctx := context.Background()

	created, err := svc.PaymentService.CreatePayment(ctx, db, owner.ID, &dto.CreatePaymentRequest{PlanID: plan.ID, PaymentMethod: "stripe"})
	require.NoError(t, err)

	_, err = svc.PaymentService.VerifyPayment(ctx, db, other, &dto.VerifyPaymentRequest{TransactionID: created.TransactionID})
	requireHTTPCode(t, err, http.StatusNotFound)
}

func TestPayment_CreateRejectsFreePlanAndMissingGateway(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, &stubGateway{order: "pi_1"})
	user := createUser(t, db, "buyer")
	free := createPlan(t, db, "Free", 0)
	pro := createPlan(t, db, "Pro", 5)
	ctx := context.Background()

	_, err := svc.PaymentService.CreatePayment(ctx, db, user.ID, &dto.CreatePaymentRequest{PlanID: free.ID, PaymentMethod: "stripe"})
	requireHTTPCode(t, err, http.StatusBadRequest)

	// razorpay не зарегистрирован
	_, err = svc.PaymentService.CreatePayment(ctx, db, user.ID, &dto.CreatePaymentRequest{PlanID: pro.ID, PaymentMethod: "razorpay"})
	requireHTTPCode(t, err, http.StatusBadRequest)

	var n int64
	db.Model(&models.Payment{}).Count(&n)
	assert.Zero(t, n)
}

func TestPayment_AdminStatusStateMachine(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, &stubGateway{order: "pi_1"})
	user := createUser(t, db, "buyer")
	plan := createPlan(t, db, "Pro", 10)
	ctx := context.Background()

	created, err := svc.PaymentService.CreatePayment(ctx, db, user.ID, &dto.CreatePaymentRequest{PlanID: plan.ID, PaymentMethod: "stripe"})
	require.NoError(t, err)
	var stored models.Payment
	require.NoError(t, db.Where("transaction_id = ?", created.TransactionID).First(&stored).Error)

	_, err = svc.PaymentService.UpdateStatus(ctx, db, stored.ID, &dto.UpdatePaymentStatusRequest{Status: "bogus"})
	requireHTTPCode(t, err, http.StatusBadRequest)

	p, err := svc.PaymentService.UpdateStatus(ctx, db, stored.ID, &dto.UpdatePaymentStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.True(t, reloaded.IsPremium, "ручное подтверждение активирует план")

	// тот же статус - без изменений
	p, err = svc.PaymentService.UpdateStatus(ctx, db, stored.ID, &dto.UpdatePaymentStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)

	_, err = svc.PaymentService.UpdateStatus(ctx, db, stored.ID, &dto.UpdatePaymentStatusRequest{Status: "failed"})
	requireHTTPCode(t, err, http.StatusConflict)
}

func TestPayment_DeleteAndRestore(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, &stubGateway{order: "pi_1"})
	user := createUser(t, db, "buyer")
	plan := createPlan(t, db, "Pro", 10)
	ctx := context.Background()

	created, err := svc.PaymentService.CreatePayment(ctx, db, user.ID, &dto.CreatePaymentRequest{PlanID: plan.ID, PaymentMethod: "stripe"})
	require.NoError(t, err)
	var stored models.Payment
	require.NoError(t, db.Where("transaction_id = ?", created.TransactionID).First(&stored).Error)

	require.NoError(t, svc.PaymentService.Delete(db, stored.ID))
	_, err = svc.PaymentService.Get(db, stored.ID)
	requireHTTPCode(t, err, http.StatusNotFound)

	restored, err := svc.PaymentService.Restore(db, stored.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
}
