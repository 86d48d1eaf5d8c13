// Package factory provides a small generic registry used to instantiate
// pluggable modules, such as metrics sinks, from configuration. A module is
// a type string plus a map of raw settings that its factory decodes into a
// typed struct.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.Sink]()
//	reg.Register("influx", func(conf map[string]any) (metrics.Sink, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInfluxSink(c.URL), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://influx:8086"}})
package factory
