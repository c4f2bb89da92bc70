package ast

// RequiredAxiom is the axiom literal every genesis block must carry.
// Genesis-presence verification and pre-execution genesis validation both
// fail when it is absent from the axiom list.
const RequiredAxiom = "¬∃⫿⤳"

// ContinuityAxiom is recommended but optional. Verification surfaces its
// absence as a warning detail only, never a violation.
const ContinuityAxiom = "⟿≡〰"
