// Package accesspoint manages controlled transitions (doors, turnstiles,
// barriers) and the requirements a door demands of whoever presents at it.
//
// Each access point has exactly one config holding a per-direction pair
// of (threshold, authentication rule). Thresholds are minimum operator
// level triples compared with >= semantics. Authentication rules carry
// an auth mode string such as "CARD_AND_PIN" or "CARD_OR_FACE", parsed
// once into an AuthExpr at configuration load rather than at decision
// time.
//
// A missing threshold or auth rule for the attempted direction is not
// an open door: the decision engine fails closed on it.
package accesspoint
