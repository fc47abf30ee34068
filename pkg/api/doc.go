// Package api defines the wire types and error taxonomy of the dojo
// backend API.
//
// JSON field names keep the Brazilian-Portuguese contract the frontend
// already speaks (nome, pagamentos, nomes_modalidades, mapa_professores);
// Go identifiers are English.
package api
