package omie

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.OmieConfig{
		BaseURL:   server.URL,
		AppKey:    "key",
		AppSecret: "secret",
		Timeout:   2 * time.Second,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewClient(cfg, server.Client(), logger)
}

func decodeEnvelope(t *testing.T, r *http.Request) request {
	t.Helper()
	var env request
	require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
	return env
}

func TestListSuppliers_FiltersByTag(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		env := decodeEnvelope(t, r)
		assert.Equal(t, "ListarClientes", env.Call)
		assert.Equal(t, "key", env.AppKey)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"pagina":           1,
			"total_de_paginas": 1,
			"clientes_cadastro": []map[string]any{
				{"codigo_cliente_omie": 1, "razao_social": "Fornecedor A", "cnpj_cpf": "00000000000191", "tags": []map[string]string{{"tag": "Fornecedor"}}},
				{"codigo_cliente_omie": 2, "razao_social": "Cliente B", "cnpj_cpf": "00000000000191", "tags": []map[string]string{{"tag": "Cliente"}}},
			},
		})
	})

	suppliers, err := client.ListSuppliers(context.Background(), "00000000000191")
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Fornecedor A", suppliers[0].Name)
}

func TestListSuppliers_EmptyIsNotAnError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"pagina": 1, "total_de_paginas": 1, "clientes_cadastro": []any{}})
	})

	suppliers, err := client.ListSuppliers(context.Background(), "123")
	require.NoError(t, err)
	assert.Empty(t, suppliers)
}

func TestListCategories_UnionsPagesAndSkipsInactive(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		env := decodeEnvelope(t, r)
		param := env.Param[0].(map[string]any)
		page := int(param["pagina"].(float64))

		response := map[string]any{"pagina": page, "total_de_paginas": 2}
		if page == 1 {
			response["categoria_cadastro"] = []map[string]any{
				{"codigo": "2.02.94", "descricao": "Energia", "nao_exibir": "N"},
				{"codigo": "9.99.99", "descricao": "Oculta", "nao_exibir": "S"},
			}
		} else {
			response["categoria_cadastro"] = []map[string]any{
				{"codigo": "3.01.01", "descricao": "Serviços", "nao_exibir": "N"},
			}
		}
		_ = json.NewEncoder(w).Encode(response)
	})

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "2.02.94", categories[0].Code)
	assert.Equal(t, "3.01.01", categories[1].Code)
}

func TestListCategories_PageFailureAbortsListing(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"pagina": 1, "total_de_paginas": 3,
				"categoria_cadastro": []map[string]any{{"codigo": "1.01.01", "nao_exibir": "N"}},
			})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	categories, err := client.ListCategories(context.Background())
	assert.Nil(t, categories, "pagination is all-or-nothing")
	var omieErr *Error
	require.ErrorAs(t, err, &omieErr)
	assert.Equal(t, KindTransport, omieErr.Kind)
}

func TestCreatePayable(t *testing.T) {
	record := &financial.Record{
		ID:                 uuid.New(),
		Protocol:           "10300020240603",
		Value:              decimal.RequireFromString("500.00"),
		CategoryCode:       "2.02.94",
		ClientSupplierCode: "FORN-1",
		DueDate:            time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			env := decodeEnvelope(t, r)
			assert.Equal(t, "IncluirContaPagar", env.Call)
			param := env.Param[0].(map[string]any)
			assert.Equal(t, record.ID.String(), param["codigo_lancamento_integracao"])
			assert.Equal(t, "05/06/2024", param["data_vencimento"])

			_ = json.NewEncoder(w).Encode(map[string]any{
				"codigo_status":                "0",
				"codigo_lancamento_integracao": "X1",
				"codigo_lancamento_omie":       900001,
			})
		})

		receipt, err := client.CreatePayable(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, "X1", receipt.IntegrationCode)
		assert.Equal(t, "900001", receipt.OmieLaunchCode)
	})

	t.Run("DomainFailure", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"codigo_status":    "102",
				"descricao_status": "Fornecedor não cadastrado",
			})
		})

		_, err := client.CreatePayable(context.Background(), record)
		var omieErr *Error
		require.ErrorAs(t, err, &omieErr)
		assert.Equal(t, KindDomain, omieErr.Kind)
		assert.Equal(t, "102", omieErr.StatusCode)
		assert.Contains(t, omieErr.Message, "Fornecedor não cadastrado")
		assert.False(t, omieErr.Retriable())
	})

	t.Run("ParseFailure", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		})

		_, err := client.CreatePayable(context.Background(), record)
		var omieErr *Error
		require.ErrorAs(t, err, &omieErr)
		assert.Equal(t, KindParse, omieErr.Kind)
	})

	t.Run("TransportFailure", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.CreatePayable(context.Background(), record)
		var omieErr *Error
		require.ErrorAs(t, err, &omieErr)
		assert.Equal(t, KindTransport, omieErr.Kind)
		assert.True(t, omieErr.Retriable())
	})
}

func TestCreateSupplier(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			env := decodeEnvelope(t, r)
			assert.Equal(t, "IncluirCliente", env.Call)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"codigo_status":             "0",
				"codigo_cliente_integracao": "FORN-00000000000191",
			})
		})

		code, err := client.CreateSupplier(context.Background(), "00000000000191", "Fornecedor A")
		require.NoError(t, err)
		assert.Equal(t, "FORN-00000000000191", code)
	})

	t.Run("DomainFailureOnNon2xx", func(t *testing.T) {
		// Omie reports duplicates with a 500 and a JSON status body.
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"codigo_status":    "101",
				"descricao_status": "Cliente já cadastrado",
			})
		})

		_, err := client.CreateSupplier(context.Background(), "00000000000191", "Fornecedor A")
		var omieErr *Error
		require.ErrorAs(t, err, &omieErr)
		assert.Equal(t, KindDomain, omieErr.Kind)
	})
}

func TestGetSupplier(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		env := decodeEnvelope(t, r)
		assert.Equal(t, "ConsultarCliente", env.Call)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"codigo_cliente_omie": 42,
			"razao_social":        "Fornecedor A",
			"cnpj_cpf":            "00000000000191",
		})
	})

	supplier, err := client.GetSupplier(context.Background(), "FORN-1")
	require.NoError(t, err)
	assert.Equal(t, "Fornecedor A", supplier.Name)
	assert.Equal(t, "00000000000191", supplier.CnpjCpf)
}
