// Package awsddb connects the explorer to AWS: it loads shared config for a
// profile and region, builds the DynamoDB client and reports which account
// the credentials resolve to.
package awsddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "ap-southeast-1"

// Options selects the credentials and region.
type Options struct {
	// Profile is a shared config profile. Empty uses the default chain.
	Profile string
	Region  string
}

// Load resolves the AWS config for opts.
func Load(ctx context.Context, opts Options) (aws.Config, error) {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		if opts.Profile != "" {
			return aws.Config{}, fmt.Errorf("failed to load AWS config with profile %s: %w", opts.Profile, err)
		}
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewClient returns a DynamoDB client for cfg.
func NewClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// Identity describes the caller behind the configured credentials.
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"userId"`
	// Alias is the account alias, if the caller may list it.
	Alias   string `json:"alias,omitempty"`
	Region  string `json:"region"`
	Profile string `json:"profile,omitempty"`
}

// STSAPI is the subset of the STS client used by Whoami.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// IAMAPI is the subset of the IAM client used by Whoami.
type IAMAPI interface {
	ListAccountAliases(ctx context.Context, params *iam.ListAccountAliasesInput, optFns ...func(*iam.Options)) (*iam.ListAccountAliasesOutput, error)
}

// Whoami resolves the caller identity. The account alias is best effort:
// many roles may not call iam:ListAccountAliases.
func Whoami(ctx context.Context, stsClient STSAPI, iamClient IAMAPI) (Identity, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("get caller identity: %w", err)
	}
	id := Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}
	if iamClient != nil {
		aliases, err := iamClient.ListAccountAliases(ctx, &iam.ListAccountAliasesInput{})
		if err == nil && len(aliases.AccountAliases) > 0 {
			id.Alias = aliases.AccountAliases[0]
		}
	}
	return id, nil
}

// IdentityFunc returns a function resolving the identity of cfg's
// credentials.
func IdentityFunc(cfg aws.Config, profile string) func(context.Context) (Identity, error) {
	stsClient := sts.NewFromConfig(cfg)
	iamClient := iam.NewFromConfig(cfg)
	return func(ctx context.Context) (Identity, error) {
		id, err := Whoami(ctx, stsClient, iamClient)
		if err != nil {
			return Identity{}, err
		}
		id.Region = cfg.Region
		id.Profile = profile
		return id, nil
	}
}
