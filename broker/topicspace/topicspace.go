// Package topicspace loads the TopicSpecs of a broker from its configured
// sources: "name=partitions" flags, a YAML document, and keys of an Etcd
// prefix. Sources are merged in that order, and a topic of a later source
// replaces the same-named topic of an earlier one.
package topicspace

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	pb "go.linemq.dev/core/broker/protocol"
	"gopkg.in/yaml.v2"
)

// Document is the YAML representation of a set of topics, as in:
//
//	comment: Topics of the example broker.
//	topics:
//	  - name: topic1
//	    partitions: 3
//	  - name: topic2
//	    partitions: 2
type Document struct {
	// Comment is a no-op field which allows for documentation of the Document.
	Comment string `yaml:",omitempty"`
	// Topics of the Document.
	Topics pb.TopicSpecs `yaml:"topics"`
}

// ParseFlags parses TopicSpecs of the "name=partitions" form.
func ParseFlags(flags []string) (pb.TopicSpecs, error) {
	var out pb.TopicSpecs

	for i, f := range flags {
		var spec, err = pb.ParseTopicSpec(f)
		if err != nil {
			return nil, pb.ExtendContext(err, "flags[%d]", i)
		}
		out = append(out, spec)
	}
	return out, out.Validate()
}

// Decode TopicSpecs from a YAML Document read from |r|.
// Unknown fields are an error.
func Decode(r io.Reader) (pb.TopicSpecs, error) {
	var b, err = io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err = yaml.UnmarshalStrict(b, &doc); err != nil {
		return nil, errors.WithMessage(err, "decoding topics document")
	} else if err = doc.Topics.Validate(); err != nil {
		return nil, err
	}
	return doc.Topics, nil
}

// Encode TopicSpecs to |w| as a YAML Document.
func Encode(w io.Writer, specs pb.TopicSpecs) error {
	var b, err = yaml.Marshal(Document{Topics: specs})
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// LoadFile decodes TopicSpecs from the YAML Document at |name| of the Fs.
func LoadFile(fs afero.Fs, name string) (pb.TopicSpecs, error) {
	var f, err = fs.Open(name)
	if err != nil {
		return nil, errors.WithMessage(err, "opening topics file")
	}
	defer f.Close()

	specs, err := Decode(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %s", name)
	}
	return specs, nil
}

// LoadEtcd loads TopicSpecs from the keys of |prefix|, as decoded by
// FromKeyValues.
func LoadEtcd(ctx context.Context, kv clientv3.KV, prefix string) (pb.TopicSpecs, error) {
	var resp, err = kv.Get(ctx, KeyPrefix(prefix), clientv3.WithPrefix())
	if err != nil {
		return nil, errors.WithMessage(err, "fetching topics from etcd")
	}
	return FromKeyValues(prefix, resp.Kvs)
}

// FromKeyValues decodes TopicSpecs of the Etcd KeyValues of |prefix|.
// Each key is the topic name, prefixed by |prefix| and a separating slash,
// and each value is the YAML encoding of its TopicSpec. The Name of a
// value may be omitted, but must match its key if present.
func FromKeyValues(prefix string, kvs []*mvccpb.KeyValue) (pb.TopicSpecs, error) {
	var out pb.TopicSpecs
	var keyPrefix = KeyPrefix(prefix)

	for _, kv := range kvs {
		var key = string(kv.Key)
		if !strings.HasPrefix(key, keyPrefix) {
			return nil, errors.Errorf("key %q is not under prefix %q", key, keyPrefix)
		}
		var name = key[len(keyPrefix):]

		var spec pb.TopicSpec
		if err := yaml.UnmarshalStrict(kv.Value, &spec); err != nil {
			return nil, errors.WithMessagef(err, "decoding %s", key)
		} else if spec.Name == "" {
			spec.Name = name
		} else if spec.Name != name {
			return nil, errors.Errorf("topic name %q doesn't match its key %q", spec.Name, key)
		}
		out = append(out, spec)
	}
	if err := out.Validate(); err != nil {
		return nil, errors.WithMessage(err, "etcd topics")
	}
	return out, nil
}

// KeyPrefix returns the Etcd key prefix of topics under |prefix|.
func KeyPrefix(prefix string) string {
	if prefix = path.Clean("/" + prefix); prefix == "/" {
		return prefix
	}
	return prefix + "/"
}

// Merge TopicSpecs of each of |sets|, where a topic of a later set replaces
// the same-named topic of an earlier one. The result is sorted on Name.
func Merge(sets ...pb.TopicSpecs) pb.TopicSpecs {
	var index = make(map[string]int)
	var out pb.TopicSpecs

	for _, set := range sets {
		for _, spec := range set {
			if i, ok := index[spec.Name]; ok {
				out[i] = spec
			} else {
				index[spec.Name] = len(out)
				out = append(out, spec)
			}
		}
	}
	out.Sort()
	return out
}
