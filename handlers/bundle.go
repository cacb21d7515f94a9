package handlers

// HandlerBundle groups every HTTP handler so route registration takes one
// argument.
type HandlerBundle struct {
	User     *UserHandler
	Writer   *WriterHandler
	Order    *OrderHandler
	Review   *ReviewHandler
	Resource *ResourceHandler
	Storage  *StorageHandler
}
