package registration

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// FCMVerifier validates registration tokens against FCM with a dry-run
// send, which exercises the provider's token check without delivering
// anything to the device.
type FCMVerifier struct {
	Client *messaging.Client
}

func (v *FCMVerifier) Verify(ctx context.Context, token string) error {
	_, err := v.Client.SendDryRun(ctx, &messaging.Message{Token: token})
	return err
}
