package mainboilerplate

import (
	"context"

	"github.com/spf13/afero"
	clientv3 "go.etcd.io/etcd/client/v3"
	pb "go.linemq.dev/core/broker/protocol"
	"go.linemq.dev/core/broker/topicspace"
)

// TopicsConfig configures the topics of a broker.
type TopicsConfig struct {
	Spec []string `long:"spec" env:"SPEC" env-delim:"," default:"topic1=3" default:"topic2=2" description:"Topic and its partition count, as name=count. May be repeated"`
	File string   `long:"file" env:"FILE" description:"Path to a YAML file of topics, which extend or replace those of --spec"`
}

// MustLoad loads the configured topics, merged with those under |prefix| of
// |etcd| if it's non-nil.
func (cfg TopicsConfig) MustLoad(ctx context.Context, fs afero.Fs, etcd *clientv3.Client, prefix string) pb.TopicSpecs {
	var specs, err = topicspace.ParseFlags(cfg.Spec)
	Must(err, "failed to parse topics", "spec", cfg.Spec)

	var fromFile, fromEtcd pb.TopicSpecs

	if cfg.File != "" {
		fromFile, err = topicspace.LoadFile(fs, cfg.File)
		Must(err, "failed to load topics file", "file", cfg.File)
	}
	if etcd != nil {
		fromEtcd, err = topicspace.LoadEtcd(ctx, etcd, prefix)
		Must(err, "failed to load topics from Etcd", "prefix", prefix)
	}
	return topicspace.Merge(specs, fromFile, fromEtcd)
}
