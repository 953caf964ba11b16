package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/gate"
	"tutupkas/backend/internal/service"
	"tutupkas/backend/internal/store"
)

const fingerprintHeader = "X-Device-Fingerprint"

var errConcurrentWrite = errors.New("concurrent update, please retry")

// deviceFingerprint prefers the client supplied fingerprint and otherwise
// derives a stable one from the user agent and client address.
func deviceFingerprint(r *http.Request) string {
	if fp := strings.TrimSpace(r.Header.Get(fingerprintHeader)); fp != "" {
		if len(fp) > 128 {
			fp = fp[:128]
		}
		return fp
	}
	sum := sha256.Sum256([]byte(r.UserAgent() + "|" + clientKey(r)))
	return "ST-" + strings.ToUpper(hex.EncodeToString(sum[:])[:12])
}

type stationHandler func(w http.ResponseWriter, r *http.Request, rc domain.RequestContext)

type stationContextKey struct{}

func stationFromContext(ctx context.Context) (domain.Station, bool) {
	station, ok := ctx.Value(stationContextKey{}).(domain.Station)
	return station, ok
}

// gateBlocked is the 428 body returned when the shift gate refuses a route.
type gateBlocked struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Redirect string `json:"redirect"`
	Reason   string `json:"reason"`
}

// atStation resolves the calling station, builds the request context and
// runs the shift gate for kind before dispatching.
func (a *API) atStation(kind gate.RouteKind, next stationHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := service.ActorFromContext(r.Context())
		storeID := actor.StoreID
		if storeID == "" {
			storeID = a.service.DefaultStoreID()
		}

		station, err := a.service.ResolveStation(r.Context(), storeID, deviceFingerprint(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		rc := domain.RequestContext{StoreID: storeID, UserID: actor.Username, StationID: station.ID}
		if kind != gate.RoutePublic {
			decision, err := a.service.Gate(r.Context(), rc, kind)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if !decision.Allow {
				writeJSON(w, http.StatusPreconditionRequired, gateBlocked{
					Error:    "shift gate: " + decision.Reason,
					Code:     "GATE_REDIRECT",
					Redirect: decision.Redirect,
					Reason:   decision.Reason,
				})
				return
			}
		}

		ctx := context.WithValue(r.Context(), stationContextKey{}, station)
		next(w, r.WithContext(ctx), rc)
	}
}

// requestContext is the context of routes that do not need a station.
func (a *API) requestContext(r *http.Request) domain.RequestContext {
	actor, _ := service.ActorFromContext(r.Context())
	storeID := actor.StoreID
	if storeID == "" {
		storeID = a.service.DefaultStoreID()
	}
	return domain.RequestContext{StoreID: storeID, UserID: actor.Username}
}

type errorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Field   string   `json:"field,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func fieldErrorStatus(code string) int {
	switch code {
	case domain.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case domain.CodeBadAuth, domain.CodeNotRegistered, domain.CodeStationInactive:
		return http.StatusForbidden
	case domain.CodeNoActiveShift:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

// writeServiceError maps core errors to HTTP responses. Unknown errors are
// 500 and their message never leaves the process.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		fieldErr  *domain.FieldError
		malformed *malformedBodyError
	)
	switch {
	case errors.As(err, &malformed):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &fieldErr):
		writeJSON(w, fieldErrorStatus(fieldErr.Code), errorBody{
			Error:   fieldErr.Message,
			Code:    fieldErr.Code,
			Field:   fieldErr.Field,
			Missing: fieldErr.Missing,
		})
	case errors.Is(err, service.ErrAdminRequired):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, service.ErrClosingBusy):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, errConcurrentWrite)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrInvalidTransaction):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type malformedBodyError struct {
	err error
}

func (e *malformedBodyError) Error() string {
	return "malformed JSON body: " + e.err.Error()
}

func (e *malformedBodyError) Unwrap() error {
	return e.err
}

// decodeRequest decodes a JSON body and runs its validate tags. Failures are
// INVALID_INPUT field errors naming the first offending field.
func (a *API) decodeRequest(r *http.Request, dest any) error {
	if err := decodeJSON(r, dest); err != nil {
		return &malformedBodyError{err: err}
	}
	if err := a.validate.Struct(dest); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return domain.InvalidInput("body", err.Error())
	}

	failed := make([]string, 0, len(validationErrs))
	for _, ve := range validationErrs {
		failed = append(failed, ve.Field()+" failed "+ve.Tag())
	}
	return domain.InvalidInput(validationErrs[0].Field(), strings.Join(failed, "; "))
}
