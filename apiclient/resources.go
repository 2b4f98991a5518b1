package apiclient

import (
	"context"

	"github.com/aj9599/rental-billing/models"
)

// Resource is the plain CRUD contract shared by the admin catalogues.
type Resource[T any] struct {
	c    *Client
	path string
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: path}
}

func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) List(ctx context.Context, params ListParams) (*models.Page[T], error) {
	var page models.Page[T]
	if err := r.c.get(ctx, r.path, params.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := r.c.get(ctx, idPath(r.path, id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Create(ctx context.Context, in T) (*T, error) {
	var item T
	if err := r.c.post(ctx, r.path, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int64, in T) (*T, error) {
	var item T
	if err := r.c.put(ctx, idPath(r.path, id), in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.delete(ctx, idPath(r.path, id))
}

func (c *Client) Rooms() *Resource[models.Room] {
	return NewResource[models.Room](c, "/admin/phong-tro")
}

func (c *Client) RoomTypes() *Resource[models.RoomType] {
	return NewResource[models.RoomType](c, "/loai-phong")
}

func (c *Client) Staff() *Resource[models.Staff] {
	return NewResource[models.Staff](c, "/nhan-vien")
}

func (c *Client) Tenants() *Resource[models.Tenant] {
	return NewResource[models.Tenant](c, "/admin/khach-thue")
}

func (c *Client) Contracts() *Resource[models.Contract] {
	return NewResource[models.Contract](c, "/admin/hop-dong")
}

func (c *Client) Accounts() *Resource[models.Account] {
	return NewResource[models.Account](c, "/admin/tai-khoan")
}

func (c *Client) Maintenance() *Resource[models.Maintenance] {
	return NewResource[models.Maintenance](c, "/admin/bao-tri")
}

func (c *Client) Rules() *Resource[models.Rule] {
	return NewResource[models.Rule](c, "/admin/noi-quy")
}

func (c *Client) Violations() *Resource[models.Violation] {
	return NewResource[models.Violation](c, "/admin/vi-pham")
}
