package fcm

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Notifier sends pushes through Firebase Cloud Messaging. Delivery is best
// effort; the caller decides what to do with errors.
type Notifier struct {
	client *messaging.Client
}

func NewNotifier(ctx context.Context, credentialsFile string) (*Notifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &Notifier{client: client}, nil
}

func (n *Notifier) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := n.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	return err
}
