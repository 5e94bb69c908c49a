package domain

import "time"

// Account es la cuenta dueña de la API key.
type Account struct {
	ID           FlexString `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug,omitempty"`
	PlanType     string     `json:"plan_type,omitempty"`
	Status       string     `json:"status,omitempty"`
	TenantsCount int        `json:"tenants_count,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Tenant es un scope aislado dentro de una cuenta.
type Tenant struct {
	ID              FlexString `json:"id"`
	AccountID       FlexString `json:"account_id,omitempty"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug,omitempty"`
	Status          string     `json:"status,omitempty"`
	MessageCount30d int        `json:"messageCount30d,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// TenantInput crea o actualiza un tenant.
type TenantInput struct {
	Name   string `json:"name,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Status string `json:"status,omitempty"`
}

// AccountUpdate es el PUT de la cuenta.
type AccountUpdate struct {
	Name string `json:"name,omitempty"`
}

// Document es una respuesta sin forma fija (billing, sandbox, dashboards).
type Document map[string]any
