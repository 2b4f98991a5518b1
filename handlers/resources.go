package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/notify"
	"github.com/aj9599/rental-billing/services"
)

var errInvalidBody = errors.New("invalid request body")

// crudResource is one backend resource as the console proxies it.
type crudResource interface {
	List(ctx context.Context, params apiclient.ListParams) (interface{}, error)
	Get(ctx context.Context, id int64) (interface{}, error)
	Create(ctx context.Context, body io.Reader) (interface{}, error)
	Update(ctx context.Context, id int64, body io.Reader) (interface{}, error)
	Delete(ctx context.Context, id int64) error
}

type resourceAdapter[T any] struct {
	r *apiclient.Resource[T]
}

func (a resourceAdapter[T]) List(ctx context.Context, params apiclient.ListParams) (interface{}, error) {
	page, err := a.r.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (a resourceAdapter[T]) Get(ctx context.Context, id int64) (interface{}, error) {
	item, err := a.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (a resourceAdapter[T]) Create(ctx context.Context, body io.Reader) (interface{}, error) {
	in, err := decodeResource[T](body)
	if err != nil {
		return nil, err
	}
	item, err := a.r.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (a resourceAdapter[T]) Update(ctx context.Context, id int64, body io.Reader) (interface{}, error) {
	in, err := decodeResource[T](body)
	if err != nil {
		return nil, err
	}
	item, err := a.r.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (a resourceAdapter[T]) Delete(ctx context.Context, id int64) error {
	return a.r.Delete(ctx, id)
}

func decodeResource[T any](body io.Reader) (T, error) {
	var in T
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		return in, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := validate.Struct(in); err != nil {
		return in, err
	}
	return in, nil
}

type resourceFactory func(*apiclient.Client) crudResource

// consoleResources are proxied as plain CRUD under /api/{name}.
var consoleResources = map[string]resourceFactory{
	"rooms":       func(c *apiclient.Client) crudResource { return resourceAdapter[models.Room]{c.Rooms()} },
	"room-types":  func(c *apiclient.Client) crudResource { return resourceAdapter[models.RoomType]{c.RoomTypes()} },
	"staff":       func(c *apiclient.Client) crudResource { return resourceAdapter[models.Staff]{c.Staff()} },
	"tenants":     func(c *apiclient.Client) crudResource { return resourceAdapter[models.Tenant]{c.Tenants()} },
	"contracts":   func(c *apiclient.Client) crudResource { return resourceAdapter[models.Contract]{c.Contracts()} },
	"accounts":    func(c *apiclient.Client) crudResource { return resourceAdapter[models.Account]{c.Accounts()} },
	"maintenance": func(c *apiclient.Client) crudResource { return resourceAdapter[models.Maintenance]{c.Maintenance()} },
	"rules":       func(c *apiclient.Client) crudResource { return resourceAdapter[models.Rule]{c.Rules()} },
	"violations":  func(c *apiclient.Client) crudResource { return resourceAdapter[models.Violation]{c.Violations()} },
}

// ResourcePattern is the mux variable pattern matching every proxied resource.
func ResourcePattern() string {
	names := make([]string, 0, len(consoleResources))
	for name := range consoleResources {
		names = append(names, name)
	}
	sort.Strings(names)
	return "{resource:" + strings.Join(names, "|") + "}"
}

type ResourceHandler struct {
	console  *Console
	notifier notify.Notifier
	guard    *services.SubmitGuard
}

func NewResourceHandler(console *Console, notifier notify.Notifier, guard *services.SubmitGuard) *ResourceHandler {
	return &ResourceHandler{console: console, notifier: notifier, guard: guard}
}

// submit runs one mutation of the resource under the session's submit guard.
func (h *ResourceHandler) submit(r *http.Request, name, action string, fn func(context.Context) error) error {
	key := services.SubmitKey(h.console.session(r).ID, name+"-"+action)
	return h.guard.Do(r.Context(), key, fn)
}

func (h *ResourceHandler) resource(w http.ResponseWriter, r *http.Request) (crudResource, string, bool) {
	name := mux.Vars(r)["resource"]
	factory, ok := consoleResources[name]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown resource")
		return nil, "", false
	}
	return factory(h.console.client(r)), name, true
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.resource(w, r)
	if !ok {
		return
	}
	page, err := res.List(r.Context(), listParams(r, "status", "room_id", "tenant_id", "floor", "role"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.resource(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	item, err := res.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	res, name, ok := h.resource(w, r)
	if !ok {
		return
	}
	var item interface{}
	err := h.submit(r, name, "create", func(ctx context.Context) error {
		var err error
		item, err = res.Create(ctx, r.Body)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.saved(r, name, "created")
	respondWithJSON(w, http.StatusCreated, item)
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	res, name, ok := h.resource(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	var item interface{}
	err = h.submit(r, name, "update", func(ctx context.Context) error {
		var err error
		item, err = res.Update(ctx, id, r.Body)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.saved(r, name, fmt.Sprintf("updated %d", id))
	respondWithJSON(w, http.StatusOK, item)
}

// Delete needs ?confirm=true; without it no request reaches the backend.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, name, ok := h.resource(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	if !confirmed(r) {
		writeServiceError(w, services.ErrConfirmationRequired, h.console.translations(r))
		return
	}
	err = h.submit(r, name, "delete", func(ctx context.Context) error {
		return res.Delete(ctx, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tr := h.console.translations(r)
	h.notifier.Notify(notify.Success(h.console.session(r).ID, tr.ItemDeleted, ""))
	h.console.logAction(r, name+"_deleted", fmt.Sprintf("%s %d", name, id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ResourceHandler) saved(r *http.Request, name, what string) {
	tr := h.console.translations(r)
	h.notifier.Notify(notify.Success(h.console.session(r).ID, tr.ItemSaved, ""))
	h.console.logAction(r, name+"_saved", fmt.Sprintf("%s %s", name, what))
}

func (h *ResourceHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.Is(err, errInvalidBody) || errors.As(err, &verrs) {
		writeBadRequest(w, err)
		return
	}
	tr := h.console.translations(r)
	if ev, ok := services.FromError(h.console.session(r).ID, tr.ActionFailed, err, tr); ok {
		h.notifier.Notify(ev)
	}
	writeServiceError(w, err, tr)
}
