package types

// Provider identifies the payment provider that sent a webhook.
type Provider string

const ProviderWhop Provider = "whop"
