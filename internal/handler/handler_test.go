package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdesk/internal/auth"
	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/model"
	"bizdesk/internal/repository"
	"bizdesk/internal/service"
)

var testCaller = &model.User{ID: 7, Email: "owner@example.com", IsActive: true}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authedContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newJSONContext(method, target, body)
	SetCurrentUser(c, testCaller)
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

type formFile struct {
	field, filename, content string
}

func multipartContext(t *testing.T, method, target string, fields map[string]string, files ...formFile) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	SetCurrentUser(c, testCaller)
	return c, rec
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperrors.MapErrorToHTTP(err).StatusCode)
}

type stubAuthService struct {
	registerFn     func(ctx context.Context, in service.RegisterInput) (string, *model.User, error)
	loginFn        func(ctx context.Context, email, password string) (string, *model.User, error)
	logoutFn       func(ctx context.Context, userID uint) error
	resolveFn      func(ctx context.Context, claims *auth.Claims) (*model.User, error)
	requestResetFn func(ctx context.Context, email string) error
	confirmResetFn func(ctx context.Context, uid, token, password, confirm string) error
}

func (s *stubAuthService) Register(ctx context.Context, in service.RegisterInput) (string, *model.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, userID uint) error {
	return s.logoutFn(ctx, userID)
}

func (s *stubAuthService) ResolveSession(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	return s.resolveFn(ctx, claims)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestResetFn(ctx, email)
}

func (s *stubAuthService) ConfirmPasswordReset(ctx context.Context, uid, token, password, confirm string) error {
	return s.confirmResetFn(ctx, uid, token, password, confirm)
}

type stubUserService struct {
	getFn    func(ctx context.Context, id uint) (*model.User, error)
	updateFn func(ctx context.Context, id uint, in service.UpdateUserInput) (*model.User, error)
	photoFn  func(ctx context.Context, id uint, filename string, content io.Reader, contentType string) (*model.User, error)
}

func (s *stubUserService) GetSelf(ctx context.Context, id uint) (*model.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) UpdateSelf(ctx context.Context, id uint, in service.UpdateUserInput) (*model.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) UploadProfilePhoto(ctx context.Context, id uint, filename string, content io.Reader, contentType string) (*model.User, error) {
	return s.photoFn(ctx, id, filename, content, contentType)
}

type stubCrmService struct {
	listFn   func(ctx context.Context, ownerID uint) ([]model.Crm, error)
	getFn    func(ctx context.Context, ownerID, id uint) (*model.Crm, error)
	createFn func(ctx context.Context, ownerID uint, in service.CrmInput) (*model.Crm, error)
	updateFn func(ctx context.Context, ownerID, id uint, in service.CrmInput, partial bool) (*model.Crm, error)
	deleteFn func(ctx context.Context, ownerID, id uint) error
	reportFn func(ctx context.Context, ownerID uint) (service.WeekdayStatusReport, error)
}

func (s *stubCrmService) List(ctx context.Context, ownerID uint) ([]model.Crm, error) {
	return s.listFn(ctx, ownerID)
}

func (s *stubCrmService) Get(ctx context.Context, ownerID, id uint) (*model.Crm, error) {
	return s.getFn(ctx, ownerID, id)
}

func (s *stubCrmService) Create(ctx context.Context, ownerID uint, in service.CrmInput) (*model.Crm, error) {
	return s.createFn(ctx, ownerID, in)
}

func (s *stubCrmService) Update(ctx context.Context, ownerID, id uint, in service.CrmInput, partial bool) (*model.Crm, error) {
	return s.updateFn(ctx, ownerID, id, in, partial)
}

func (s *stubCrmService) Delete(ctx context.Context, ownerID, id uint) error {
	return s.deleteFn(ctx, ownerID, id)
}

func (s *stubCrmService) StatusByDay(ctx context.Context, ownerID uint) (service.WeekdayStatusReport, error) {
	return s.reportFn(ctx, ownerID)
}

type stubInvoiceService struct {
	listFn   func(ctx context.Context, ownerID uint) ([]model.Invoice, error)
	searchFn func(ctx context.Context, ownerID uint, query string) ([]model.Invoice, error)
	getFn    func(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	createFn func(ctx context.Context, ownerID uint, in service.InvoiceInput) (*model.Invoice, error)
	updateFn func(ctx context.Context, ownerID, id uint, in service.InvoiceInput) (*model.Invoice, error)
	deleteFn func(ctx context.Context, ownerID, id uint) error
	paidFn   func(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	sentFn   func(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	statsFn  func(ctx context.Context, ownerID uint) (*repository.InvoiceStats, error)
}

func (s *stubInvoiceService) List(ctx context.Context, ownerID uint) ([]model.Invoice, error) {
	return s.listFn(ctx, ownerID)
}

func (s *stubInvoiceService) Search(ctx context.Context, ownerID uint, query string) ([]model.Invoice, error) {
	return s.searchFn(ctx, ownerID, query)
}

func (s *stubInvoiceService) Get(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	return s.getFn(ctx, ownerID, id)
}

func (s *stubInvoiceService) Create(ctx context.Context, ownerID uint, in service.InvoiceInput) (*model.Invoice, error) {
	return s.createFn(ctx, ownerID, in)
}

func (s *stubInvoiceService) Update(ctx context.Context, ownerID, id uint, in service.InvoiceInput) (*model.Invoice, error) {
	return s.updateFn(ctx, ownerID, id, in)
}

func (s *stubInvoiceService) Delete(ctx context.Context, ownerID, id uint) error {
	return s.deleteFn(ctx, ownerID, id)
}

func (s *stubInvoiceService) MarkAsPaid(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	return s.paidFn(ctx, ownerID, id)
}

func (s *stubInvoiceService) MarkAsSent(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	return s.sentFn(ctx, ownerID, id)
}

func (s *stubInvoiceService) Stats(ctx context.Context, ownerID uint) (*repository.InvoiceStats, error) {
	return s.statsFn(ctx, ownerID)
}

type stubFileService struct {
	uploadFn func(ctx context.Context, ownerID uint, in service.UploadInput) (*model.DataStore, error)
	listFn   func(ctx context.Context, ownerID uint, fileType model.FileType) ([]model.DataStore, error)
	getFn    func(ctx context.Context, ownerID, id uint) (*model.DataStore, error)
	deleteFn func(ctx context.Context, ownerID, id uint) error
}

func (s *stubFileService) Upload(ctx context.Context, ownerID uint, in service.UploadInput) (*model.DataStore, error) {
	return s.uploadFn(ctx, ownerID, in)
}

func (s *stubFileService) List(ctx context.Context, ownerID uint, fileType model.FileType) ([]model.DataStore, error) {
	return s.listFn(ctx, ownerID, fileType)
}

func (s *stubFileService) Get(ctx context.Context, ownerID, id uint) (*model.DataStore, error) {
	return s.getFn(ctx, ownerID, id)
}

func (s *stubFileService) Delete(ctx context.Context, ownerID, id uint) error {
	return s.deleteFn(ctx, ownerID, id)
}
