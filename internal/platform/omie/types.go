package omie

import "encoding/json"

// request is the envelope every Omie call is wrapped in.
type request struct {
	Call      string `json:"call"`
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
	Param     []any  `json:"param"`
}

// statusEnvelope is the domain-level status pair present on write responses.
// "0" means success; anything else is a domain failure described by
// DescricaoStatus.
type statusEnvelope struct {
	CodigoStatus    string `json:"codigo_status"`
	DescricaoStatus string `json:"descricao_status"`
}

// Supplier is a supplier registration ("cliente" tagged Fornecedor).
type Supplier struct {
	SupplierCode int64  `json:"codigo_cliente_omie"`
	Name         string `json:"razao_social"`
	TradeName    string `json:"nome_fantasia"`
	CnpjCpf      string `json:"cnpj_cpf"`
	Tags         []Tag  `json:"tags"`
}

// Tag labels a registration; suppliers carry the tag "Fornecedor".
type Tag struct {
	Tag string `json:"tag"`
}

// HasTag reports whether the supplier carries the given tag.
func (s Supplier) HasTag(name string) bool {
	for _, t := range s.Tags {
		if t.Tag == name {
			return true
		}
	}
	return false
}

// listSuppliersResponse is a page of ListarClientes.
type listSuppliersResponse struct {
	Page       int        `json:"pagina"`
	TotalPages int        `json:"total_de_paginas"`
	Suppliers  []Supplier `json:"clientes_cadastro"`
}

// Category is one entry of the external category taxonomy.
type Category struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
	Inactive    string `json:"nao_exibir"` // "S" hides the category
}

// listCategoriesResponse is a page of ListarCategorias.
type listCategoriesResponse struct {
	Page       int        `json:"pagina"`
	TotalPages int        `json:"total_de_paginas"`
	Categories []Category `json:"categoria_cadastro"`
}

// createSupplierResponse is the envelope returned by IncluirCliente.
type createSupplierResponse struct {
	statusEnvelope
	IntegrationCode string `json:"codigo_cliente_integracao"`
	SupplierCode    int64  `json:"codigo_cliente_omie"`
}

// createPayableResponse is the envelope returned by IncluirContaPagar.
type createPayableResponse struct {
	statusEnvelope
	IntegrationCode string      `json:"codigo_lancamento_integracao"`
	OmieLaunchCode  json.Number `json:"codigo_lancamento_omie"`
}

// PayableReceipt is the outcome of a successful payable insertion.
type PayableReceipt struct {
	IntegrationCode string
	OmieLaunchCode  string
}

// supplierDetail is the envelope returned by ConsultarCliente.
type supplierDetail struct {
	SupplierCode int64  `json:"codigo_cliente_omie"`
	Name         string `json:"razao_social"`
	CnpjCpf      string `json:"cnpj_cpf"`
}
