// Content-classification decision engine for user-submitted text.
//
// This package (`github.com/devcabi-net/mirage-community-sub000/moderation`) holds the shared value types for the moderation pipeline: the internal category enum, the normalized verdict shape, the provider interface, and the per-provider attribute mapping tables. The orchestration logic lives in `moderation/engine`, the network-backed provider adapters under `moderation/provider/`, and the dependency-free keyword fallback in `moderation/keyword`. A daemon exposing the engine over HTTP is at `cmd/warden`.
package moderation
