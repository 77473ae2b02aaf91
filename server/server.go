package server

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt/v4"
	"github.com/haileyok/seneca/blockstore"
	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/events"
	"github.com/haileyok/seneca/identity"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/haileyok/seneca/registry"
	"github.com/haileyok/seneca/signature"
	"github.com/haileyok/seneca/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lestrrat-go/jwx/v2/jwk"
	slogecho "github.com/samber/slog-echo"
	"gorm.io/gorm"
)

const (
	accessScope       = "registry.access"
	defaultSessionTTL = 24 * time.Hour
	challengeWindow   = 5 * time.Minute
)

type Server struct {
	httpd       *http.Server
	echo        *echo.Echo
	db          *gorm.DB
	store       *store.Store
	blocks      *blockstore.RecordBlockstore
	logger      *slog.Logger
	config      *config
	privateKey  *ecdsa.PrivateKey
	verifier    signature.Verifier
	passport    *identity.Passport
	schemas     *registry.Schemas
	credentials *registry.Credentials
	evtman      *events.Manager
	amqp        *events.AmqpPublisher

	// mutations are applied one at a time
	mu sync.Mutex

	setupOnce sync.Once
	setupErr  error
}

type Args struct {
	Addr                   string
	DbDriver               string
	DbName                 string
	Logger                 *slog.Logger
	Version                string
	Did                    string
	Hostname               string
	JwkPath                string
	SignatureScheme        string
	DidMethod              string
	VerifyChecksum         bool
	EnforceExpiry          bool
	RequireIncreasingNonce bool
	SessionTTL             time.Duration
	AmqpUrl                string
	AmqpExchange           string
	AmqpRoutingKey         string
}

type config struct {
	Version    string
	Did        string
	Hostname   string
	Scheme     signature.Scheme
	SessionTTL time.Duration
}

type CustomValidator struct {
	validator *validator.Validate
}

type ValidationError struct {
	error
	Field string
	Tag   string
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		var validateErrors validator.ValidationErrors
		if errors.As(err, &validateErrors) && len(validateErrors) > 0 {
			first := validateErrors[0]
			return ValidationError{
				error: err,
				Field: first.Field(),
				Tag:   first.Tag(),
			}
		}

		return err
	}

	return nil
}

func (s *Server) handleSessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(e echo.Context) error {
		authheader := e.Request().Header.Get("authorization")
		if authheader == "" {
			return helpers.Unauthorized(e, nil)
		}

		pts := strings.Split(authheader, " ")
		if len(pts) != 2 || !strings.EqualFold(pts[0], "bearer") {
			return helpers.InputError(e, to.StringPtr("InvalidToken"))
		}

		tokenstr := pts[1]

		token, err := new(jwt.Parser).Parse(tokenstr, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("unsupported signing method: %v", t.Header["alg"])
			}

			return s.privateKey.Public(), nil
		})
		if err != nil {
			var verr *jwt.ValidationError
			if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
				return helpers.InputError(e, to.StringPtr("ExpiredToken"))
			}

			s.logger.Error("error parsing jwt", "error", err)
			return helpers.InputError(e, to.StringPtr("InvalidToken"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return helpers.InputError(e, to.StringPtr("InvalidToken"))
		}

		if scope, _ := claims["scope"].(string); scope != accessScope {
			return helpers.InputError(e, to.StringPtr("InvalidToken"))
		}

		type Result struct {
			Found bool
		}
		var result Result
		if err := s.db.Raw("SELECT EXISTS(SELECT 1 FROM tokens WHERE token = ?) AS found", tokenstr).Scan(&result).Error; err != nil {
			s.logger.Error("error getting token from db", "error", err)
			return helpers.ServerError(e, nil)
		}

		if !result.Found {
			return helpers.InputError(e, to.StringPtr("InvalidToken"))
		}

		exp, ok := claims["exp"].(float64)
		if !ok {
			s.logger.Error("error getting exp from token")
			return helpers.ServerError(e, nil)
		}

		if exp < float64(time.Now().UTC().Unix()) {
			return helpers.InputError(e, to.StringPtr("ExpiredToken"))
		}

		sub, _ := claims["sub"].(string)
		acct, err := s.passport.ResolveAccount(e.Request().Context(), sub)
		if err != nil {
			s.logger.Error("error resolving session did", "did", sub, "error", err)
			return helpers.InputError(e, to.StringPtr("InvalidToken"))
		}

		e.Set("did", sub)
		e.Set("account", acct)
		e.Set("token", tokenstr)

		if err := next(e); err != nil {
			e.Error(err)
		}

		return nil
	}
}

func New(args *Args) (*Server, error) {
	if args.Addr == "" {
		return nil, fmt.Errorf("addr must be set")
	}

	if args.DbName == "" {
		return nil, fmt.Errorf("db name must be set")
	}

	if args.Did == "" {
		return nil, fmt.Errorf("seneca did must be set")
	}

	if _, err := syntax.ParseDID(args.Did); err != nil {
		return nil, fmt.Errorf("error parsing seneca did: %w", err)
	}

	if args.Hostname == "" {
		return nil, fmt.Errorf("seneca hostname must be set")
	}

	if args.JwkPath == "" {
		return nil, fmt.Errorf("jwk path must be set")
	}

	if args.Logger == nil {
		args.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	}

	if args.SessionTTL <= 0 {
		args.SessionTTL = defaultSessionTTL
	}

	if args.SignatureScheme == "" {
		args.SignatureScheme = string(signature.Sr25519)
	}

	scheme, err := signature.ParseScheme(args.SignatureScheme)
	if err != nil {
		return nil, err
	}

	verifier, err := signature.NewVerifier(scheme)
	if err != nil {
		return nil, err
	}

	e := echo.New()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Pre(slogecho.New(args.Logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"*"},
		AllowMethods:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           100_000_000,
	}))

	vdtor := validator.New()
	vdtor.RegisterValidation("did", func(fl validator.FieldLevel) bool {
		if _, err := syntax.ParseDID(fl.Field().String()); err != nil {
			return false
		}
		return true
	})
	vdtor.RegisterValidation("hexsig", func(fl validator.FieldLevel) bool {
		if _, err := signature.ParseHex(fl.Field().String()); err != nil {
			return false
		}
		return true
	})

	e.Validator = &CustomValidator{validator: vdtor}

	httpd := &http.Server{
		Addr:    args.Addr,
		Handler: e,
	}

	db, err := store.Open(args.DbDriver, args.DbName)
	if err != nil {
		return nil, err
	}

	st := store.New(db)

	jwkbytes, err := os.ReadFile(args.JwkPath)
	if err != nil {
		return nil, err
	}

	key, err := jwk.ParseKey(jwkbytes)
	if err != nil {
		return nil, err
	}

	var pkey ecdsa.PrivateKey
	if err := key.Raw(&pkey); err != nil {
		return nil, err
	}

	codec := &did.Codec{
		Method:         args.DidMethod,
		VerifyChecksum: args.VerifyChecksum,
		Prefix:         did.DefaultPrefix,
	}

	passport := identity.NewPassport(codec, scheme, identity.NewMemCache(10_000, time.Hour))

	var publishers []events.Publisher
	var amqpPub *events.AmqpPublisher
	if args.AmqpUrl != "" {
		amqpPub, err = events.NewAmqpPublisher(&events.AmqpArgs{
			Url:        args.AmqpUrl,
			Exchange:   args.AmqpExchange,
			RoutingKey: args.AmqpRoutingKey,
		})
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, amqpPub)
	}

	evtman := events.NewManager(&events.ManagerArgs{
		Logger:     args.Logger,
		Publishers: publishers,
	})

	regargs := &registry.Args{
		Store:    st,
		Resolver: passport,
		Verifier: verifier,
		Events:   evtman,
		Config: &registry.Config{
			EnforceExpiry:          args.EnforceExpiry,
			RequireIncreasingNonce: args.RequireIncreasingNonce,
		},
		Logger: args.Logger,
	}

	schemas, err := registry.NewSchemas(regargs)
	if err != nil {
		return nil, err
	}

	credentials, err := registry.NewCredentials(regargs, schemas)
	if err != nil {
		return nil, err
	}

	s := &Server{
		httpd:       httpd,
		echo:        e,
		db:          db,
		store:       st,
		blocks:      blockstore.New(st),
		logger:      args.Logger,
		privateKey:  &pkey,
		verifier:    verifier,
		passport:    passport,
		schemas:     schemas,
		credentials: credentials,
		evtman:      evtman,
		amqp:        amqpPub,
		config: &config{
			Version:    args.Version,
			Did:        args.Did,
			Hostname:   args.Hostname,
			Scheme:     scheme,
			SessionTTL: args.SessionTTL,
		},
	}

	return s, nil
}

func (s *Server) addRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/xrpc/_health", s.handleHealth)
	s.echo.GET("/.well-known/did.json", s.handleWellKnown)
	s.echo.GET("/robots.txt", s.handleRobots)

	// public
	s.echo.POST("/xrpc/registry.createSession", s.handleCreateSession)
	s.echo.GET("/xrpc/registry.resolveDid", s.handleResolveDid)
	s.echo.GET("/xrpc/registry.getSchema", s.handleGetSchema)
	s.echo.GET("/xrpc/registry.listSchemas", s.handleListSchemas)
	s.echo.GET("/xrpc/registry.getCredential", s.handleGetCredential)
	s.echo.GET("/xrpc/registry.listCredentials", s.handleListCredentials)
	s.echo.GET("/xrpc/registry.getBlock", s.handleGetBlock)
	s.echo.GET("/xrpc/registry.exportArchive", s.handleExportArchive)
	s.echo.GET("/xrpc/registry.subscribe", s.handleSubscribe)

	// authed
	s.echo.POST("/xrpc/registry.deleteSession", s.handleDeleteSession, s.handleSessionMiddleware)
	s.echo.POST("/xrpc/registry.createSchema", s.handleCreateSchema, s.handleSessionMiddleware)
	s.echo.POST("/xrpc/registry.updateSchema", s.handleUpdateSchema, s.handleSessionMiddleware)
	s.echo.POST("/xrpc/registry.deleteSchema", s.handleDeleteSchema, s.handleSessionMiddleware)
	s.echo.POST("/xrpc/registry.createCredential", s.handleCreateCredential, s.handleSessionMiddleware)
	s.echo.POST("/xrpc/registry.updateCredential", s.handleUpdateCredential, s.handleSessionMiddleware)
	s.echo.POST("/xrpc/registry.deleteCredential", s.handleDeleteCredential, s.handleSessionMiddleware)
}

// Handler migrates the database and returns the routed handler.
func (s *Server) Handler() (http.Handler, error) {
	s.setupOnce.Do(func() {
		s.addRoutes()

		s.logger.Info("migrating...")

		if err := s.store.Migrate(); err != nil {
			s.setupErr = fmt.Errorf("error migrating database: %w", err)
		}
	})

	return s.echo, s.setupErr
}

func (s *Server) Serve(ctx context.Context) error {
	if _, err := s.Handler(); err != nil {
		return err
	}

	go s.sweepTokens(ctx)

	s.logger.Info("starting seneca", "addr", s.httpd.Addr)

	go func() {
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpd.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", "error", err)
	}

	if s.amqp != nil {
		if err := s.amqp.Close(); err != nil {
			s.logger.Error("error closing amqp publisher", "error", err)
		}
	}

	fmt.Println("shut down")

	return nil
}

func (s *Server) sweepTokens(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.db.Exec("DELETE FROM tokens WHERE expires_at < ?", time.Now().UTC()).Error; err != nil {
				s.logger.Error("error sweeping expired tokens", "error", err)
			}
		}
	}
}
