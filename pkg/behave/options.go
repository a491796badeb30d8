package behave

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger for the context.
func WithLogger(logger Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithData sets initial scenario data.
func WithData(data map[string]any) Option {
	return func(c *Context) {
		c.data = newData(data)
	}
}

// WithStoryData sets initial story data.
func WithStoryData(data map[string]any) Option {
	return func(c *Context) {
		c.storyData = newData(data)
	}
}
