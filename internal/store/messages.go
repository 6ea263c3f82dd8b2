package store

// User-facing notification texts.
const (
	msgAdded         = "Thêm vào giỏ hàng thành công"
	msgAddFailed     = "Có lỗi xảy ra khi cập nhật sách"
	msgUpdated       = "Cập nhật số lượng thành công"
	msgUpdateFailed  = "Có lỗi xảy ra khi cập nhật số lượng sản phẩm"
	msgDeleted       = "Xóa sản phẩm thành công"
	msgDeleteFailed  = "Có lỗi xảy ra khi xóa sản phẩm"
	msgPaid          = "Đặt hàng thành công"
	msgPayFailed     = "Có lỗi xảy ra khi đặt hàng"
	msgShippingInfo  = "Vui lòng điền đầy đủ thông tin giao hàng!"
	msgEmptyCart     = "Giỏ hàng trống"
	msgBadQuantity   = "Số lượng không hợp lệ"
	msgLoggedIn      = "Đăng nhập thành công"
	msgLoginFailed   = "Đăng nhập thất bại"
	msgLoggedOut     = "Đăng xuất thành công"
	msgRegistered    = "Đăng ký thành công"
	msgRegisterError = "Đăng ký thất bại"
	msgUnknownError  = "Đã xảy ra lỗi không xác định"
)
