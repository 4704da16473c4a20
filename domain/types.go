package domain

// MerchantAccount is the read-only account record a merchant context wraps.
type MerchantAccount struct {
	ID            string
	Name          string
	StorageScheme StorageScheme
}

// MerchantKeyStore carries the key material resolved alongside an account.
type MerchantKeyStore struct {
	MerchantID string
	Key        []byte
}

// MerchantContext bundles the account and key material for one pipeline
// invocation. It is resolved once per request and treated as constant for
// the duration of that request.
type MerchantContext struct {
	Account  MerchantAccount
	KeyStore MerchantKeyStore
}

func (m *MerchantContext) MerchantID() string {
	return m.Account.ID
}

func (m *MerchantContext) Scheme() StorageScheme {
	return m.Account.StorageScheme
}

// Profile is a read-only merchant sub-configuration fetched once per request.
type Profile struct {
	ID                               string
	MerchantID                       string
	Name                             string
	UseBillingAsPaymentMethodBilling bool
}

// Address is a stored address row scoped to a merchant and payment.
type Address struct {
	ID         string
	MerchantID string
	PaymentID  string
	Line1      string
	City       string
	Country    string
	Zip        string
}

// PaymentAddress groups the addresses resolved for a payment. The payment
// method billing address falls back to the billing address when the profile
// opts in.
type PaymentAddress struct {
	Shipping             *Address
	Billing              *Address
	PaymentMethodBilling *Address
}

// NewPaymentAddress assembles the address set, honoring the profile's
// billing fallback flag.
func NewPaymentAddress(shipping, billing, paymentMethodBilling *Address, useBillingAsPaymentMethodBilling bool) PaymentAddress {
	pmb := paymentMethodBilling
	if pmb == nil && useBillingAsPaymentMethodBilling {
		pmb = billing
	}
	return PaymentAddress{
		Shipping:             shipping,
		Billing:              billing,
		PaymentMethodBilling: pmb,
	}
}
