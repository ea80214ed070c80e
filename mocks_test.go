package taskflow_test

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	taskflow "github.com/goliatone/go-taskflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// stubRepo wires stub repositories behind the RepositoryManager interface.
// RunInTx hands the callback a zero transaction; the stubs never touch it.
type stubRepo struct {
	taskflow.RepositoryManager
	users taskflow.Users
	tasks taskflow.Tasks
}

func (s *stubRepo) Users() taskflow.Users { return s.users }
func (s *stubRepo) Tasks() taskflow.Tasks { return s.tasks }
func (s *stubRepo) Validate() error       { return nil }

func (s *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

type stubUsers struct {
	taskflow.Users
	registerTx      func(ctx context.Context, user *taskflow.User) (*taskflow.User, error)
	getByIdentifier func(ctx context.Context, identifier string) (*taskflow.User, error)
	getByID         func(ctx context.Context, id string) (*taskflow.User, error)
	listActive      func(ctx context.Context) ([]*taskflow.User, error)
	update          func(ctx context.Context, record *taskflow.User) (*taskflow.User, error)
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *taskflow.User) (*taskflow.User, error) {
	return s.registerTx(ctx, user)
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*taskflow.User, error) {
	return s.getByIdentifier(ctx, identifier)
}

func (s *stubUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*taskflow.User, error) {
	return s.getByIdentifier(ctx, identifier)
}

func (s *stubUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*taskflow.User, error) {
	return s.getByID(ctx, id)
}

func (s *stubUsers) ListActive(ctx context.Context) ([]*taskflow.User, error) {
	return s.listActive(ctx)
}

func (s *stubUsers) Update(ctx context.Context, record *taskflow.User, criteria ...repository.UpdateCriteria) (*taskflow.User, error) {
	return s.update(ctx, record)
}

type stubTasks struct {
	taskflow.Tasks
	list       func(ctx context.Context, filter *taskflow.TaskFilter) ([]*taskflow.Task, int, error)
	getByID    func(ctx context.Context, id string) (*taskflow.Task, error)
	createTx   func(ctx context.Context, record *taskflow.Task) (*taskflow.Task, error)
	updateTx   func(ctx context.Context, record *taskflow.Task) (*taskflow.Task, error)
	deleteByID func(ctx context.Context, id uuid.UUID) error
}

func (s *stubTasks) ListFiltered(ctx context.Context, filter *taskflow.TaskFilter) ([]*taskflow.Task, int, error) {
	return s.list(ctx, filter)
}

func (s *stubTasks) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*taskflow.Task, error) {
	return s.getByID(ctx, id)
}

func (s *stubTasks) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*taskflow.Task, error) {
	return s.getByID(ctx, id)
}

func (s *stubTasks) CreateTx(ctx context.Context, tx bun.IDB, record *taskflow.Task, criteria ...repository.InsertCriteria) (*taskflow.Task, error) {
	return s.createTx(ctx, record)
}

func (s *stubTasks) UpdateTx(ctx context.Context, tx bun.IDB, record *taskflow.Task, criteria ...repository.UpdateCriteria) (*taskflow.Task, error) {
	return s.updateTx(ctx, record)
}

func (s *stubTasks) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, id)
}

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key string, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}

func (m *MockContext) SendStatus(status int) error {
	args := m.Called(status)
	return args.Error(0)
}

func (m *MockContext) SendStream(stream io.Reader, size ...int) error {
	if len(size) > 0 {
		args := m.Called(stream, size[0])
		return args.Error(0)
	}
	args := m.Called(stream)
	return args.Error(0)
}
