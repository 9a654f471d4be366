// Package web serves the tracker over a small JSON HTTP API.
//
// Every response carries a "success" flag. Failures add "error" and "code";
// validation failures map to 400, unknown parts to 404, state conflicts to
// 409 and storage failures to 500. Pruning is intentionally not exposed.
package web
