// Package omie is the client for the Omie accounting API. Every call is a
// POST of a {call, app_key, app_secret, param} envelope; failures are
// normalized into a single *Error carrying a transport/domain/parse kind.
package omie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
)

const (
	suppliersEndpoint  = "/geral/clientes/"
	categoriesEndpoint = "/geral/categorias/"
	payablesEndpoint   = "/financas/contapagar/"

	// SupplierTag marks registrations that act as suppliers.
	SupplierTag = "Fornecedor"

	categoriesPageSize = 50
)

// Client talks to the Omie API. It is safe to share across workers: the
// underlying http.Client pools connections.
type Client struct {
	baseURL    string
	appKey     string
	appSecret  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client from configuration. The http.Client is injected
// so tests can point it at a fake server; pass nil to use a default client
// with the configured timeout.
func NewClient(cfg *config.OmieConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		appKey:     cfg.AppKey,
		appSecret:  cfg.AppSecret,
		httpClient: httpClient,
		logger:     logger,
	}
}

// call posts an envelope and decodes the response into out. The unified
// error taxonomy is applied here; the typed operations below only add their
// domain-status checks.
func (c *Client) call(ctx context.Context, endpoint, callName string, param any, out any) error {
	envelope := request{
		Call:      callName,
		AppKey:    c.appKey,
		AppSecret: c.appSecret,
		Param:     []any{param},
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return transportError(callName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return transportError(callName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Omie request failed", "call", callName, "error", err)
		return transportError(callName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(callName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Omie reports some domain failures with a non-2xx status and a
		// JSON body; surface those as domain errors when parseable.
		var env statusEnvelope
		if json.Unmarshal(raw, &env) == nil && env.CodigoStatus != "" && env.CodigoStatus != "0" {
			return domainError(callName, env)
		}
		return transportError(callName, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return parseError(callName, err)
	}
	return nil
}

// ListSuppliers returns the suppliers registered under the document number,
// filtered to registrations tagged as suppliers. An empty result is a valid
// answer, distinct from a transport failure.
func (c *Client) ListSuppliers(ctx context.Context, cnpjCpf string) ([]Supplier, error) {
	param := map[string]any{
		"pagina":               1,
		"registros_por_pagina": 50,
		"clientesFiltro":       map[string]string{"cnpj_cpf": cnpjCpf},
		"apenas_importado_api": "N",
	}

	var page listSuppliersResponse
	if err := c.call(ctx, suppliersEndpoint, "ListarClientes", param, &page); err != nil {
		return nil, err
	}

	suppliers := make([]Supplier, 0, len(page.Suppliers))
	for _, s := range page.Suppliers {
		if s.HasTag(SupplierTag) {
			suppliers = append(suppliers, s)
		}
	}
	return suppliers, nil
}

// ListCategories returns the union of active categories across all pages.
// Pagination is all-or-nothing: a failure on any page aborts the listing.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category

	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		param := map[string]any{
			"pagina":               page,
			"registros_por_pagina": categoriesPageSize,
		}

		var resp listCategoriesResponse
		if err := c.call(ctx, categoriesEndpoint, "ListarCategorias", param, &resp); err != nil {
			return nil, err
		}
		if resp.TotalPages > totalPages {
			totalPages = resp.TotalPages
		}

		for _, cat := range resp.Categories {
			if cat.Inactive == "S" {
				continue
			}
			categories = append(categories, cat)
		}
	}

	return categories, nil
}

// CreateSupplier registers a supplier and returns its integration code.
func (c *Client) CreateSupplier(ctx context.Context, cnpjCpf, name string) (string, error) {
	integrationCode := "FORN-" + cnpjCpf
	param := map[string]any{
		"codigo_cliente_integracao": integrationCode,
		"razao_social":              name,
		"cnpj_cpf":                  cnpjCpf,
		"tags":                      []Tag{{Tag: SupplierTag}},
	}

	var resp createSupplierResponse
	if err := c.call(ctx, suppliersEndpoint, "IncluirCliente", param, &resp); err != nil {
		return "", err
	}
	if resp.CodigoStatus != "0" {
		return "", domainError("IncluirCliente", resp.statusEnvelope)
	}
	if resp.IntegrationCode != "" {
		return resp.IntegrationCode, nil
	}
	return integrationCode, nil
}

// CreatePayable inserts a payable entry for the record. The record's ID is
// used as the integration code so repeated insertions of the same record
// collide on the Omie side instead of duplicating the payable.
func (c *Client) CreatePayable(ctx context.Context, record *financial.Record) (PayableReceipt, error) {
	param := map[string]any{
		"codigo_lancamento_integracao": record.ID.String(),
		"codigo_cliente_fornecedor":    record.ClientSupplierCode,
		"data_vencimento":              record.DueDate.Format("02/01/2006"),
		"valor_documento":              record.Value.InexactFloat64(),
		"codigo_categoria":             record.CategoryCode,
		"data_previsao":                record.DueDate.Format("02/01/2006"),
		"observacao":                   fmt.Sprintf("Registro de Pagamento nº %s", record.Protocol),
	}

	var resp createPayableResponse
	if err := c.call(ctx, payablesEndpoint, "IncluirContaPagar", param, &resp); err != nil {
		return PayableReceipt{}, err
	}
	if resp.CodigoStatus != "0" {
		return PayableReceipt{}, domainError("IncluirContaPagar", resp.statusEnvelope)
	}

	return PayableReceipt{
		IntegrationCode: resp.IntegrationCode,
		OmieLaunchCode:  resp.OmieLaunchCode.String(),
	}, nil
}

// GetSupplier fetches a supplier registration by its code.
func (c *Client) GetSupplier(ctx context.Context, supplierCode string) (*Supplier, error) {
	param := map[string]any{
		"codigo_cliente_integracao": supplierCode,
	}

	var detail supplierDetail
	if err := c.call(ctx, suppliersEndpoint, "ConsultarCliente", param, &detail); err != nil {
		return nil, err
	}

	return &Supplier{
		SupplierCode: detail.SupplierCode,
		Name:         detail.Name,
		CnpjCpf:      detail.CnpjCpf,
	}, nil
}
