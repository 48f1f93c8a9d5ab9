// Package ddbui serves the record explorer over HTTP: a JSON API for the
// table catalog, queries, updates, guarded deletes and server-side result
// rendering, plus the embedded single-page web client.
//
// # Endpoints
//
//	GET  /api/tables    environments, tables and indexes
//	POST /api/query     {environment, table, indexName, values}
//	POST /api/update    {environment, table, item}
//	POST /api/delete    {environment, table, primaryKey, primaryValue, confirmationToken}
//	POST /api/render    {items, mode, search, collapsed, normalize}
//	GET  /api/identity  AWS caller identity, when running against AWS
//
// Failures are reported as HTTP 400 with {"success": false, "error": "..."}.
//
// Start the server with the ddbx CLI:
//
//	ddbx serve --port 8080
package ddbui
