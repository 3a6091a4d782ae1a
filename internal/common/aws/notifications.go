// internal/common/aws/notifications.go
package aws

import (
	"context"
	"fmt"

	"storefront-workers/internal/common/config"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Senders holds one delivery client per enabled notification channel.
// A disabled channel leaves its client nil.
type Senders struct {
	Email *ses.Client
	SMS   *sns.Client
}

// NewSenders loads the shared AWS configuration once and builds the SES and
// SNS clients the notification settings ask for.
func NewSenders(ctx context.Context, cfg config.NotificationConfig) (*Senders, error) {
	senders := &Senders{}
	if !cfg.Email.Enabled && !cfg.SMS.Enabled {
		return senders, nil
	}
	if cfg.AWS.Region == "" {
		return nil, fmt.Errorf("aws region is required when notifications are enabled")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	if cfg.Email.Enabled {
		senders.Email = ses.NewFromConfig(awsCfg)
	}
	if cfg.SMS.Enabled {
		senders.SMS = sns.NewFromConfig(awsCfg)
	}
	return senders, nil
}
