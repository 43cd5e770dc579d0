package internal

import (
	"net/url"

	"paygate/entity"
)

// VerifyNotify authenticates an asynchronous notification pushed by the
// provider. The signature and signature-type entries are removed before
// the canonical string is rebuilt, per the exclusion invariant, and the
// carried signature is checked against the provider public key. A
// failed check returns ErrSignatureMismatch and the notification must
// never be treated as proof of payment.
func (g *Gateway) VerifyNotify(merchant *entity.Merchant, values url.Values) (*entity.Notify, error) {
	data := NewGatewayData()
	data.FromValues(values)

	var notify entity.Notify
	if err := data.ToStruct(&notify); err != nil {
		return nil, err
	}
	if notify.Sign == "" {
		return nil, ErrSignatureMismatch
	}

	data.Remove(signField)
	data.Remove(signTypeField)

	signer := NewSigner(notify.SignType)
	if !signer.Verify(data.CanonicalString(false), notify.Sign, merchant.PublicKey) {
		return nil, ErrSignatureMismatch
	}
	return &notify, nil
}
