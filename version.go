package jssandbox

// Version is the engine release tag, printed by the CLI.
const Version = "0.1.0"
