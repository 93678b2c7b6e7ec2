package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmstead/storefront/internal/events"
	"github.com/farmstead/storefront/internal/hash"
	"github.com/farmstead/storefront/internal/mail"
	authmw "github.com/farmstead/storefront/internal/middleware/auth"
	"github.com/farmstead/storefront/internal/models"
	"github.com/farmstead/storefront/internal/service/checkout"
	"github.com/farmstead/storefront/internal/service/orders"
	"github.com/farmstead/storefront/internal/session"
)

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error { return v.validate.Struct(i) }

type fakeSender struct {
	sent []mail.Message
	fail bool
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Sessions *session.Store
	Sender   *fakeSender

	Auth     *AuthHandler
	Products *ProductHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Mw       *authmw.Middleware
}

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.ShippingDetail{}, &models.Order{}, &models.OrderLine{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	sessions := session.NewStore(rdb, 2*time.Hour)

	sender := &fakeSender{}
	producer := &events.Producer{}

	e := echo.New()
	e.Validator = &requestValidator{validate: validator.New()}

	env := &testEnv{
		T:        t,
		E:        e,
		DB:       db,
		Sessions: sessions,
		Sender:   sender,
		Mw:       &authmw.Middleware{Store: sessions},
	}
	env.Auth = &AuthHandler{DB: db, Sessions: sessions, Producer: producer}
	env.Products = &ProductHandler{DB: db, Producer: producer, Indexer: nil}
	env.Checkout = &CheckoutHandler{Checkout: &checkout.Service{DB: db, Mailer: sender, Producer: producer}}
	env.Orders = &OrderHandler{Orders: &orders.Service{DB: db, Mailer: sender}, Producer: producer}
	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) createUser(t *testing.T, email string, admin bool) *models.User {
	pwHash, err := hash.HashPassword("password123")
	require.NoError(t, err)
	user := models.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: pwHash,
		IsAdmin:      admin,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, env.DB.Create(&user).Error)
	return &user
}

// loginAs creates a session directly in the store and returns its cookie.
func (env *testEnv) loginAs(t *testing.T, user *models.User) *http.Cookie {
	id, err := env.Sessions.Create(context.Background(), &session.Session{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	})
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: id, Path: "/"}
}
