package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// adminPages is the back-office page allow-list. The login page is absent on
// purpose: it must stay reachable without a session or nobody could ever
// sign in.
var adminPages = map[string]bool{
	"dashboard":  true,
	"orders":     true,
	"categories": true,
	"shipping":   true,
	"settings":   true,
}

// RequiresAuth reports whether a back-office page sits behind the guard.
func RequiresAuth(page string) bool {
	return adminPages[page]
}

// AdminService owns the back-office: the auth guard, sign-in/out, category
// management with image storage, and the order book.
type AdminService struct {
	identity    port.Identity
	members     port.MembershipStore
	tenants     port.TenantStore
	catalog     port.CatalogStore
	adminCat    port.AdminCatalogStore
	orders      port.OrderStore
	blob        port.BlobStore
	jwtSecret   []byte
	authTimeout time.Duration
	pageSize    int
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewAdminService creates the back-office service. authTimeout bounds the
// remote session check; it is tuned longer than the general HTTP timeout.
func NewAdminService(
	identity port.Identity,
	members port.MembershipStore,
	tenants port.TenantStore,
	catalog port.CatalogStore,
	adminCat port.AdminCatalogStore,
	orders port.OrderStore,
	blob port.BlobStore,
	jwtSecret string,
	authTimeout time.Duration,
	pageSize int,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *AdminService {
	return &AdminService{
		identity:    identity,
		members:     members,
		tenants:     tenants,
		catalog:     catalog,
		adminCat:    adminCat,
		orders:      orders,
		blob:        blob,
		jwtSecret:   []byte(jwtSecret),
		authTimeout: authTimeout,
		pageSize:    pageSize,
		logger:      logger,
		metrics:     metrics,
	}
}

// ============================================================
// Guard
// ============================================================

// Authenticate runs the full admin guard for a bearer token: local signature
// check, remote session confirmation bounded by authTimeout, then membership.
// A guard that cannot reach a verdict in time treats the session as absent
// rather than hanging the page.
func (s *AdminService) Authenticate(ctx context.Context, token string) (*domain.StoreMembership, error) {
	ctx, span := tracer.Start(ctx, "Admin.Authenticate")
	defer span.End()

	if token == "" {
		s.metrics.IncrGuardDecision("unauthenticated")
		return nil, &domain.ErrUnauthorized{Message: "يرجى تسجيل الدخول"}
	}

	if _, err := s.verifyLocal(token); err != nil {
		s.metrics.IncrGuardDecision("unauthenticated")
		s.logger.Debug("guard: local token check failed", zap.Error(err))
		return nil, &domain.ErrUnauthorized{Message: "يرجى تسجيل الدخول"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.authTimeout)
	defer cancel()

	user, err := s.identity.GetUser(checkCtx, token)
	if err != nil {
		s.metrics.IncrGuardDecision("unauthenticated")
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("guard: session check timed out")
			return nil, &domain.ErrUnauthorized{Message: "انتهت مهلة التحقق، يرجى المحاولة مجددًا"}
		}
		return nil, &domain.ErrUnauthorized{Message: "يرجى تسجيل الدخول"}
	}
	if user == nil {
		s.metrics.IncrGuardDecision("unauthenticated")
		return nil, &domain.ErrUnauthorized{Message: "انتهت الجلسة، يرجى تسجيل الدخول"}
	}

	membership, err := s.members.GetMembership(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Role == "" {
		s.metrics.IncrGuardDecision("unauthorized")
		s.logger.Warn("guard: user has no store membership", zap.String("user_id", user.ID))
		return nil, &domain.ErrForbidden{Action: "admin access"}
	}

	s.metrics.IncrGuardDecision("granted")
	return membership, nil
}

// verifyLocal checks the token signature against the shared JWT secret and
// returns the subject. Cheap pre-filter before the remote session check.
func (s *AdminService) verifyLocal(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.jwtSecret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token carries no subject")
	}
	return sub, nil
}

// Login signs the merchant in and confirms a store membership exists. A
// session without a membership is revoked immediately: the identity exists
// but administers nothing.
func (s *AdminService) Login(ctx context.Context, email, password string) (*domain.Session, *domain.StoreMembership, error) {
	ctx, span := tracer.Start(ctx, "Admin.Login")
	defer span.End()

	session, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if session.User == nil {
		return nil, nil, &domain.ErrUnauthorized{Message: "بيانات الدخول غير صحيحة"}
	}

	membership, err := s.members.GetMembership(ctx, session.User.ID)
	if err != nil {
		return nil, nil, err
	}
	if membership == nil || membership.Role == "" {
		if err := s.identity.SignOut(ctx, session.AccessToken); err != nil {
			s.logger.Warn("login: revoking membership-less session failed", zap.Error(err))
		}
		s.metrics.IncrGuardDecision("unauthorized")
		return nil, nil, &domain.ErrForbidden{Action: "admin access"}
	}

	s.logger.Info("login: merchant signed in",
		zap.String("user_id", session.User.ID),
		zap.Int64("store_id", membership.StoreID),
	)
	return session, membership, nil
}

// Logout revokes the session. Revocation failure is surfaced; the client
// drops its token either way.
func (s *AdminService) Logout(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "Admin.Logout")
	defer span.End()

	return s.identity.SignOut(ctx, token)
}

// StoreInfo re-reads the membership's store row, so a rename or deactivation
// done out of band shows up without a fresh login.
func (s *AdminService) StoreInfo(ctx context.Context, storeID int64) (*domain.Store, error) {
	ctx, span := tracer.Start(ctx, "Admin.StoreInfo")
	defer span.End()

	store, err := s.tenants.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, &domain.ErrNotFound{Resource: "store", ID: fmt.Sprint(storeID)}
	}
	return store, nil
}

// ============================================================
// Categories
// ============================================================

// Upload is an incoming image file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ListCategories returns the store's categories with their product counts,
// fetched concurrently.
func (s *AdminService) ListCategories(ctx context.Context, storeID int64) ([]domain.CategoryWithCount, error) {
	ctx, span := tracer.Start(ctx, "Admin.ListCategories")
	defer span.End()

	categories, err := s.catalog.ListCategories(ctx, storeID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CategoryWithCount, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range categories {
		i, cat := i, cat
		out[i].Category = cat
		g.Go(func() error {
			n, err := s.catalog.CountProductsInCategory(gctx, storeID, cat.ID)
			if err != nil {
				return err
			}
			out[i].ProductCount = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory uploads the image first, then inserts the row. When the
// insert fails the fresh blob is deleted best-effort so it does not leak.
func (s *AdminService) CreateCategory(ctx context.Context, storeID int64, name string, image *Upload) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Admin.CreateCategory")
	defer span.End()

	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "يرجى إدخال اسم الفئة"}
	}

	imageURL := ""
	if image != nil {
		url, err := s.blob.Upload(ctx, "categories", image.Filename, image.ContentType, image.Body)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	created, err := s.adminCat.CreateCategory(ctx, &domain.Category{
		Name:     name,
		ImageURL: imageURL,
		StoreID:  storeID,
	})
	if err != nil {
		if imageURL != "" {
			if delErr := s.blob.Delete(ctx, imageURL); delErr != nil {
				s.logger.Warn("category: orphaned blob cleanup failed",
					zap.String("url", imageURL),
					zap.Error(delErr),
				)
			}
		}
		return nil, err
	}

	s.logger.Info("category: created",
		zap.Int64("store_id", storeID),
		zap.Int64("category_id", created.ID),
	)
	return created, nil
}

// UpdateCategory patches the name and, when a new image is supplied, replaces
// the stored one. The old blob is deleted only after the row points at the
// new URL; a failed delete is logged and never rolls the update back.
func (s *AdminService) UpdateCategory(ctx context.Context, storeID, categoryID int64, name string, image *Upload) error {
	ctx, span := tracer.Start(ctx, "Admin.UpdateCategory")
	defer span.End()

	existing, err := s.catalog.GetCategory(ctx, storeID, categoryID)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if name != "" {
		fields["name"] = name
	}

	newURL := ""
	if image != nil {
		newURL, err = s.blob.Upload(ctx, "categories", image.Filename, image.ContentType, image.Body)
		if err != nil {
			return err
		}
		fields["image_url"] = newURL
	}
	if len(fields) == 0 {
		return &domain.ErrValidation{Field: "name", Message: "لا يوجد تغيير للحفظ"}
	}

	if err := s.adminCat.UpdateCategory(ctx, storeID, categoryID, fields); err != nil {
		if newURL != "" {
			if delErr := s.blob.Delete(ctx, newURL); delErr != nil {
				s.logger.Warn("category: orphaned blob cleanup failed",
					zap.String("url", newURL),
					zap.Error(delErr),
				)
			}
		}
		return err
	}

	if newURL != "" && existing.ImageURL != "" {
		if err := s.blob.Delete(ctx, existing.ImageURL); err != nil {
			s.logger.Warn("category: replaced blob delete failed",
				zap.String("url", existing.ImageURL),
				zap.Error(err),
			)
		}
	}
	return nil
}

// DeleteCategory removes the row, then the image blob. Blob deletion failure
// is logged only: an orphaned image costs storage, not correctness.
func (s *AdminService) DeleteCategory(ctx context.Context, storeID, categoryID int64) error {
	ctx, span := tracer.Start(ctx, "Admin.DeleteCategory")
	defer span.End()

	existing, err := s.catalog.GetCategory(ctx, storeID, categoryID)
	if err != nil {
		return err
	}
	if err := s.adminCat.DeleteCategory(ctx, storeID, categoryID); err != nil {
		return err
	}
	if existing.ImageURL != "" {
		if err := s.blob.Delete(ctx, existing.ImageURL); err != nil {
			s.logger.Warn("category: blob delete failed",
				zap.String("url", existing.ImageURL),
				zap.Error(err),
			)
		}
	}
	s.logger.Info("category: deleted",
		zap.Int64("store_id", storeID),
		zap.Int64("category_id", categoryID),
	)
	return nil
}

// ============================================================
// Orders
// ============================================================

// ListOrders returns one page of the store's order book, newest first.
func (s *AdminService) ListOrders(ctx context.Context, storeID int64, page int) (Page[domain.Order], error) {
	ctx, span := tracer.Start(ctx, "Admin.ListOrders")
	defer span.End()

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.pageSize

	orders, err := s.orders.ListOrders(ctx, storeID, offset, s.pageSize)
	if err != nil {
		return Page[domain.Order]{}, err
	}
	total, err := s.orders.CountOrders(ctx, storeID)
	if err != nil {
		return Page[domain.Order]{}, err
	}
	return newPage(orders, page, s.pageSize, total), nil
}
