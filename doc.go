// Package costbasis turns a chronological list of buy and sell transactions
// into authoritative per-asset holdings: remaining quantity, cost basis,
// average buy price and realized profit or loss.
//
// The engine is stateless. Every call replays the full transaction history of
// an asset in three phases:
//   - Rate collection: the distinct (day, currency) pairs needed to express
//     every transaction price in the target currency are gathered.
//   - Rate resolution: the pairs are resolved at once, concurrently or in a
//     single batch, from a RateService. The result is a RateTable, so that a
//     replay never sees two different rates for the same day and currency.
//   - Replay: transactions are matched first-in first-out by a Tracker, and
//     the remaining lots are reduced into a cost basis by Aggregate.
//
// Historical rates that cannot be resolved are replaced by 1 and the result is
// flagged as degraded. Sells exceeding the open lots are reported as
// warnings. Only malformed transactions abort a computation.
//
// The eodhd and ratecache packages provide RateService implementations, the
// cbs command is a command line front-end to the engine.
package costbasis
