// Package auth implements the authentication and session core of the
// console: credential verification, single-use email tokens, JWT session
// claims with per-refresh enrichment, the sign-in orchestrator, and the
// admin access guard.
//
// All durable state lives in the relational store behind RepositoryManager;
// nothing here caches authorization decisions across requests.
package auth
