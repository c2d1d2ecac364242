package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
)

type Warehouse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	ManagerName string `json:"managerName"`
}

// WarehouseRequest fields left nil are not touched on update.
type WarehouseRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	ManagerName *string `json:"managerName"`
}

type Warehouses struct {
	Store WarehouseStore
}

func (s *Warehouses) List(ctx context.Context) ([]Warehouse, error) {
	ws, err := s.Store.ListWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return ws, nil
}

func (s *Warehouses) Get(ctx context.Context, id int64) (Warehouse, error) {
	w, err := s.Store.GetWarehouse(ctx, id)
	if err != nil {
		return Warehouse{}, warehouseErr(id, err)
	}
	return w, nil
}

func (s *Warehouses) Create(ctx context.Context, req WarehouseRequest) (Warehouse, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return Warehouse{}, apperr.Validation("warehouse name is required")
	}
	var w Warehouse
	apply(&w, req)
	if err := s.Store.CreateWarehouse(ctx, &w); err != nil {
		return Warehouse{}, fmt.Errorf("create warehouse: %w", err)
	}
	return w, nil
}

func (s *Warehouses) Update(ctx context.Context, id int64, req WarehouseRequest) (Warehouse, error) {
	w, err := s.Store.GetWarehouse(ctx, id)
	if err != nil {
		return Warehouse{}, warehouseErr(id, err)
	}
	apply(&w, req)
	if err := s.Store.UpdateWarehouse(ctx, w); err != nil {
		return Warehouse{}, warehouseErr(id, err)
	}
	return w, nil
}

func (s *Warehouses) Delete(ctx context.Context, id int64) error {
	if err := s.Store.DeleteWarehouse(ctx, id); err != nil {
		return warehouseErr(id, err)
	}
	return nil
}

func apply(w *Warehouse, req WarehouseRequest) {
	if req.Name != nil {
		w.Name = *req.Name
	}
	if req.Address != nil {
		w.Address = *req.Address
	}
	if req.ManagerName != nil {
		w.ManagerName = *req.ManagerName
	}
}

func warehouseErr(id int64, err error) error {
	if errors.Is(err, ErrWarehouseNotFound) {
		return apperr.NotFound("Warehouse with ID %d does not exist", id)
	}
	return fmt.Errorf("warehouse %d: %w", id, err)
}
