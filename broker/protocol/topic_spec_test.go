package protocol

import (
	gc "gopkg.in/check.v1"
	"gopkg.in/yaml.v2"
)

type TopicSpecSuite struct{}

func (s *TopicSpecSuite) TestValidationCases(c *gc.C) {
	var cases = []struct {
		spec   TopicSpec
		expect string
	}{
		{TopicSpec{Name: "topic1", Partitions: 3}, ""},
		{TopicSpec{Name: "a/b.c-d_e+f", Partitions: 1}, ""},
		{TopicSpec{Name: "", Partitions: 1}, `Name: invalid length \(0; expected 1 <= length <= 256\)`},
		{TopicSpec{Name: "bad name", Partitions: 1}, `Name: not a valid token \(bad name\)`},
		{TopicSpec{Name: "topic1", Partitions: 0}, `invalid Partitions \(0; expected 1 <= Partitions <= 4096\)`},
	}
	for _, tc := range cases {
		if tc.expect == "" {
			c.Check(tc.spec.Validate(), gc.IsNil)
		} else {
			c.Check(tc.spec.Validate(), gc.ErrorMatches, tc.expect)
		}
	}
}

func (s *TopicSpecSuite) TestParsing(c *gc.C) {
	var spec, err = ParseTopicSpec("topic1=3")
	c.Check(err, gc.IsNil)
	c.Check(spec, gc.Equals, TopicSpec{Name: "topic1", Partitions: 3})
	c.Check(spec.String(), gc.Equals, "topic1=3")

	_, err = ParseTopicSpec("topic1")
	c.Check(err, gc.ErrorMatches, `expected name=partitions \(topic1\)`)
	_, err = ParseTopicSpec("topic1=many")
	c.Check(err, gc.ErrorMatches, `invalid partitions \(many\)`)
	_, err = ParseTopicSpec("topic1=-2")
	c.Check(err, gc.ErrorMatches, `invalid Partitions .*`)
}

func (s *TopicSpecSuite) TestSetValidationAndMap(c *gc.C) {
	var specs TopicSpecs
	c.Check(yaml.UnmarshalStrict([]byte(`
- name: topic2
  partitions: 2
- name: topic1
  partitions: 3
`), &specs), gc.IsNil)

	c.Check(specs.Validate(), gc.IsNil)
	c.Check(specs.Map(), gc.DeepEquals, map[string]int{"topic1": 3, "topic2": 2})

	specs.Sort()
	c.Check(specs[0].Name, gc.Equals, "topic1")

	specs = append(specs, TopicSpec{Name: "topic1", Partitions: 1})
	c.Check(specs.Validate(), gc.ErrorMatches, `duplicate topic Name \(topic1\)`)

	specs[2] = TopicSpec{Name: "topic3"}
	c.Check(specs.Validate(), gc.ErrorMatches, `TopicSpecs\[2\]: invalid Partitions .*`)
}

var _ = gc.Suite(&TopicSpecSuite{})
