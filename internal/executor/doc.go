// Package executor implements a breadth-first, batch-friendly GraphQL executor
// with explicit runtime hooks for synchronous resolution, depth-wise batching
// of asynchronous work, abstract-type resolution, leaf serialization, and
// subscription streams.
//
// # Execution model
//
// The executor follows a level-by-level (BFS) execution model:
//   - Resolverless ("physical") fields expand immediately via
//     Runtime.ResolveSync without adding batch depth.
//   - Resolver-backed fields encountered at the current depth are collected
//     and resolved in a single call to Runtime.BatchResolveAsync.
//   - Values are completed according to the GraphQL specification (lists,
//     leafs, objects, abstract types), including Non-Null null-propagation.
//   - Located errors accumulate while allowing partial success.
//
// A core invariant: for a query with asynchronous depth d, BatchResolveAsync
// is invoked exactly d times. Purely synchronous descents do not increase d.
//
// # Non-Null propagation
//
// A Non-Null violation at path p nulls the nearest nullable ancestor and
// marks that ancestor path as a tombstone. Queued tasks under a tombstoned
// path are dropped before the next batch.
//
// # Subscriptions
//
// ExecuteSubscription resolves the operation's single root field into a
// SubscriptionSource via Runtime.ResolveSubscription and wraps it in a
// SubscriptionStream. Each pull completes one event value with the same
// completion rules as queries, including nested resolver batches.
//
// # Request-scoped data
//
// The root value and per-request context value travel in the context via
// WithRequestData; runtime implementations read them with RequestDataFrom.
package executor
